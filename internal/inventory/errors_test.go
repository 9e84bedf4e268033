package inventory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := Errorf(KindNotFound, "pantrysoft.get-item", "item %s", "044000882105")
	wrapped := fmt.Errorf("lookup: %w", err)

	require.ErrorIs(t, wrapped, ErrNotFound)
	require.NotErrorIs(t, wrapped, ErrRemote)
	require.Equal(t, KindNotFound, KindOf(wrapped))
	require.Equal(t, "pantrysoft.get-item: not found: item 044000882105", err.Error())
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindRemote, "catalog.product", cause)

	require.ErrorIs(t, err, ErrRemote)
	require.ErrorIs(t, err, cause)
	require.Equal(t, KindRemote, KindOf(err))
}

func TestLinkFailureMatchesSentinel(t *testing.T) {
	var err error = &LinkFailure{UPC: "044000882105", Name: "Crackers", ItemID: 7, Message: "Invalid code"}
	wrapped := fmt.Errorf("create: %w", err)

	require.ErrorIs(t, wrapped, ErrLinkFailure)
	require.NotErrorIs(t, wrapped, ErrNotFound)
	require.Equal(t, KindLinkFailure, KindOf(wrapped))

	var lf *LinkFailure
	require.ErrorAs(t, wrapped, &lf)
	require.Equal(t, int64(7), lf.ItemID)
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Equal(t, KindUnknown, KindOf(nil))
}

func TestAddResultString(t *testing.T) {
	require.Equal(t, "ALREADY_EXISTS", AlreadyExists.String())
	require.Equal(t, "ADDED", Added.String())
	require.Equal(t, "NOT_FOUND", NotFound.String())
}

func TestNewManualItem(t *testing.T) {
	item := NewManualItem("123", "Canned Beans")
	require.Equal(t, Item{
		UPC:         "123",
		Name:        "Canned Beans",
		Category:    "Manual Entry",
		Description: "Manually added item.",
	}, item)
}
