package inventory

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories callers branch on.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound is a lookup miss.
	KindNotFound
	// KindDuplicate is a create attempted on an existing UPC.
	KindDuplicate
	// KindAuthTimeout means the login wall never yielded the post-login marker.
	KindAuthTimeout
	// KindLinkFailure means an item was created but its code link was not.
	KindLinkFailure
	// KindImageUpload means the media endpoint did not return an image id.
	KindImageUpload
	// KindRemote is a transport or parse failure.
	KindRemote
	// KindSessionExpired means the server answered with its login wall.
	KindSessionExpired
	// KindInvalid is malformed caller input.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindDuplicate:
		return "duplicate"
	case KindAuthTimeout:
		return "authentication timeout"
	case KindLinkFailure:
		return "link failure"
	case KindImageUpload:
		return "image upload"
	case KindRemote:
		return "remote"
	case KindSessionExpired:
		return "session expired"
	case KindInvalid:
		return "invalid"
	}
	return "unknown"
}

// Error is a typed failure. Two errors match under errors.Is when their
// kinds match, so the sentinels below can be used as comparison targets.
type Error struct {
	Kind Kind
	// Op is the operation that failed, ex. "pantrysoft.create-item".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrDuplicate      = &Error{Kind: KindDuplicate}
	ErrAuthTimeout    = &Error{Kind: KindAuthTimeout}
	ErrLinkFailure    = &Error{Kind: KindLinkFailure}
	ErrImageUpload    = &Error{Kind: KindImageUpload}
	ErrRemote         = &Error{Kind: KindRemote}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
	ErrInvalid        = &Error{Kind: KindInvalid}
)

// Errorf creates an *Error of the given kind with a formatted message.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind around err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if le := (*LinkFailure)(nil); errors.As(err, &le) {
		return KindLinkFailure
	}
	return KindUnknown
}

// LinkFailure is returned when an item was created but linking its code
// failed. The item exists remotely without a usable lookup key and must be
// reconciled by hand.
type LinkFailure struct {
	UPC     string
	Name    string
	ItemID  int64
	Message string
}

func (e *LinkFailure) Error() string {
	return fmt.Sprintf(
		"failed to link item code %s to item %s (id %d): %s",
		e.UPC, e.Name, e.ItemID, e.Message,
	)
}

func (e *LinkFailure) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindLinkFailure
}
