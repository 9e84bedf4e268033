// Package pantrysofttest provides an in-memory PantrySoft server for tests.
// It serves the listing json, the server rendered forms and their single use
// tokens the way the real application does.
package pantrysofttest

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	CookieName = "PHPSESSID"
	Session    = "test-session"
)

type Item struct {
	ID            int64
	ItemNumber    string
	Name          string
	Unit          string
	Weight        float64
	TypeID        int64
	Description   string
	SymbolType    string
	ImageUploadID string
}

type Code struct {
	ID         int64
	CodeNumber string
	ItemID     int64
}

type Named struct {
	ID   int64
	Name string
}

type Server struct {
	*httptest.Server

	// Session is the cookie value the server accepts, requests without it
	// are redirected to /login.
	Session string
	// LinkMessage renders the code link response, defaults to the message
	// the real server sends on success.
	LinkMessage func(codeNumber, name string) string
	// RejectUploads makes image uploads answer without a media id.
	RejectUploads bool
	// OmitDeleteToken renders listing pages without the delete modal.
	OmitDeleteToken bool
	// RejectTokens makes every form submission fail its token check.
	RejectTokens bool

	mutex    sync.Mutex
	nextId   int64
	items    []Item
	codes    []Code
	types    []Named
	tags     []Named
	tokens   map[string]bool
	uploads  map[string][]byte
	requests map[string]int
}

func NewServer() *Server {
	s := &Server{
		Session:  Session,
		nextId:   1,
		tokens:   map[string]bool{},
		uploads:  map[string][]byte{},
		requests: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", s.login)
	mux.HandleFunc("GET /inventoryitem/indexdata", s.listItems)
	mux.HandleFunc("GET /inventory_code/indexData", s.listCodes)
	mux.HandleFunc("GET /inventoryitemtype/indexdata", s.listTypes)
	mux.HandleFunc("GET /inventoryitemtag/indexdata", s.listTags)
	mux.HandleFunc("GET /inventoryitem/{$}", s.inventoryPage)
	mux.HandleFunc("GET /inventoryitem/new", s.itemNewForm)
	mux.HandleFunc("POST /inventoryitem/new", s.itemCreate)
	mux.HandleFunc("GET /inventoryitem/{id}/edit", s.itemEditForm)
	mux.HandleFunc("POST /inventoryitem/{first}/{second}", s.itemPost)
	mux.HandleFunc("GET /inventory_code/new", s.codeNewForm)
	mux.HandleFunc("POST /inventory_code/new", s.codeCreate)
	mux.HandleFunc("GET /inventoryitemtype/new", s.typeNewForm)
	mux.HandleFunc("POST /inventoryitemtype/new", s.typeCreate)
	mux.HandleFunc("GET /inventoryitemtype/{$}", s.typesPage)
	mux.HandleFunc("GET /inventoryitemtype/{id}/edit", s.typeEditForm)
	mux.HandleFunc("POST /inventoryitemtype/delete/{id}", s.typeDelete)
	mux.HandleFunc("POST /media/upload/image", s.uploadImage)

	s.Server = httptest.NewServer(s.middleware(mux))
	return s
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		s.mutex.Unlock()

		if r.URL.Path != "/login" {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value != s.Session {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Requests returns how many requests were made with the given method and path.
func (s *Server) Requests(method, path string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.requests[method+" "+path]
}

// Mutations returns how many POST requests were made.
func (s *Server) Mutations() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	count := 0
	for key, n := range s.requests {
		if strings.HasPrefix(key, "POST ") {
			count += n
		}
	}
	return count
}

func (s *Server) id() int64 {
	id := s.nextId
	s.nextId++
	return id
}

// AddType seeds a category and returns its id.
func (s *Server) AddType(name string) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.addType(name)
}

func (s *Server) addType(name string) int64 {
	id := s.id()
	s.types = append(s.types, Named{ID: id, Name: name})
	return id
}

func (s *Server) AddTag(name string) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	id := s.id()
	s.tags = append(s.tags, Named{ID: id, Name: name})
	return id
}

// AddItem seeds an item, linking its item number as a code when link is set.
func (s *Server) AddItem(item Item, link bool) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	item.ID = s.id()
	s.items = append(s.items, item)
	if link {
		s.codes = append(s.codes, Code{ID: s.id(), CodeNumber: item.ItemNumber, ItemID: item.ID})
	}
	return item.ID
}

func (s *Server) Items() []Item {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.items)
}

func (s *Server) Codes() []Code {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.codes)
}

func (s *Server) Types() []Named {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.types)
}

// Upload returns the bytes uploaded under a media id.
func (s *Server) Upload(id string) ([]byte, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	image, ok := s.uploads[id]
	return image, ok
}

func (s *Server) typeName(id int64) string {
	for _, t := range s.types {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func (s *Server) itemIndex(id int64) int {
	return slices.IndexFunc(s.items, func(item Item) bool { return item.ID == id })
}

func (s *Server) issueToken() string {
	token := fmt.Sprintf("token-%d", s.id())
	s.tokens[token] = true
	return token
}

func (s *Server) consumeToken(token string) bool {
	if s.RejectTokens || !s.tokens[token] {
		return false
	}
	delete(s.tokens, token)
	return true
}

func pathId(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeHtml(w http.ResponseWriter, body string) {
	w.Header().Set("content-type", "text/html; charset=UTF-8")
	io.WriteString(w, "<!DOCTYPE html><html><body>"+body+"</body></html>")
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	writeHtml(w, `<form><input id="username"><input id="password" type="password"><button id="index_login_btn">Login</button></form>`)
}

func listing[T any](w http.ResponseWriter, r *http.Request, records []T) {
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	length, err := strconv.Atoi(r.URL.Query().Get("length"))
	if err != nil || length <= 0 {
		length = len(records)
	}
	start = min(max(start, 0), len(records))
	end := min(start+length, len(records))

	writeJson(w, map[string]any{
		"draw":            1,
		"recordsTotal":    len(records),
		"recordsFiltered": len(records),
		"data":            records[start:end],
	})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	records := make([]map[string]any, len(s.items))
	for i, item := range s.items {
		// the real server sends numbers as strings
		records[i] = map[string]any{
			"id":             item.ID,
			"itemNumber":     item.ItemNumber,
			"name":           item.Name,
			"unit":           item.Unit,
			"weight":         strconv.FormatFloat(item.Weight, 'f', 2, 64),
			"itemTypeString": s.typeName(item.TypeID),
			"isActive":       true,
		}
	}
	s.mutex.Unlock()
	listing(w, r, records)
}

func (s *Server) listCodes(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	records := make([]map[string]any, len(s.codes))
	for i, code := range s.codes {
		records[i] = map[string]any{
			"id":         code.ID,
			"codeNumber": code.CodeNumber,
			"itemId":     strconv.FormatInt(code.ItemID, 10),
		}
	}
	s.mutex.Unlock()
	listing(w, r, records)
}

func named(records []Named) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, n := range records {
		out[i] = map[string]any{"id": n.ID, "name": n.Name}
	}
	return out
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	records := named(s.types)
	s.mutex.Unlock()
	listing(w, r, records)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	records := named(s.tags)
	s.mutex.Unlock()
	listing(w, r, records)
}

func (s *Server) inventoryPage(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.OmitDeleteToken {
		writeHtml(w, `<table id="inventory"></table>`)
		return
	}
	writeHtml(w, fmt.Sprintf(
		`<table id="inventory"></table><generic-delete-modal csrf-token="%s"></generic-delete-modal>`,
		s.issueToken(),
	))
}

func hiddenToken(id, token string) string {
	return fmt.Sprintf(`<input type="hidden" id="%s" name="%s" value="%s">`, id, id, token)
}

func (s *Server) itemForm(item Item) string {
	var options strings.Builder
	for _, t := range s.types {
		selected := ""
		if t.ID == item.TypeID {
			selected = " selected"
		}
		fmt.Fprintf(&options, `<option value="%d"%s>%s</option>`, t.ID, selected, html.EscapeString(t.Name))
	}
	return fmt.Sprintf(
		`<form method="post">`+
			`<input id="pantrybundle_inventoryitem_name" value="%s">`+
			`<select id="pantrybundle_inventoryitem_inventoryItemType"><option value=""></option>%s</select>`+
			`<textarea id="pantrybundle_inventoryitem_description">%s</textarea>%s</form>`,
		html.EscapeString(item.Name),
		options.String(),
		html.EscapeString(item.Description),
		hiddenToken("pantrybundle_inventoryitem__token", s.issueToken()),
	)
}

func (s *Server) itemNewForm(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	writeHtml(w, s.itemForm(Item{}))
}

func (s *Server) parseItemForm(r *http.Request, item *Item) bool {
	field := func(name string) string {
		return r.PostFormValue("pantrybundle_inventoryitem[" + name + "]")
	}
	if !s.consumeToken(field("_token")) {
		return false
	}
	typeId, _ := strconv.ParseInt(field("inventoryItemType"), 10, 64)
	weight, _ := strconv.ParseFloat(field("weight"), 64)
	item.Name = field("name")
	item.ItemNumber = field("itemNumber")
	item.Unit = field("unit")
	item.Weight = weight
	item.TypeID = typeId
	item.Description = field("description")
	item.SymbolType = field("symbolType")
	item.ImageUploadID = field("imageUploadId")
	return true
}

func (s *Server) itemCreate(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var item Item
	if !s.parseItemForm(r, &item) {
		// an invalid token re-renders the form without saving
		writeHtml(w, `<div class="alert">The CSRF token is invalid.</div>`+s.itemForm(item))
		return
	}
	item.ID = s.id()
	s.items = append(s.items, item)
	http.Redirect(w, r, "/inventoryitem/", http.StatusFound)
}

func (s *Server) itemEditForm(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, _ := pathId(r, "id")
	i := s.itemIndex(id)
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	writeHtml(w, s.itemForm(s.items[i]))
}

// itemPost serves both /inventoryitem/{id}/edit and /inventoryitem/delete/{id}.
func (s *Server) itemPost(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.PathValue("first") == "delete":
		id, _ := pathId(r, "second")
		s.itemDelete(w, r, id)
	case r.PathValue("second") == "edit":
		id, _ := pathId(r, "first")
		s.itemUpdate(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) itemUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.itemIndex(id)
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	item := s.items[i]
	if !s.parseItemForm(r, &item) {
		writeHtml(w, `<div class="alert">The CSRF token is invalid.</div>`+s.itemForm(s.items[i]))
		return
	}
	s.items[i] = item
	http.Redirect(w, r, "/inventoryitem/", http.StatusFound)
}

func (s *Server) itemDelete(w http.ResponseWriter, r *http.Request, id int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if r.PostFormValue("_method") != "DELETE" || !s.consumeToken(r.PostFormValue("csrfToken")) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}
	i := s.itemIndex(id)
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.codes = slices.DeleteFunc(s.codes, func(c Code) bool { return c.ItemID == id })
	http.Redirect(w, r, "/inventoryitem/", http.StatusFound)
}

func (s *Server) codeNewForm(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	writeHtml(w, `<form method="post"><input id="pantrybundle_inventoryitemcode_codeNumber">`+
		hiddenToken("pantrybundle_inventoryitemcode__token", s.issueToken())+`</form>`)
}

func (s *Server) codeCreate(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.consumeToken(r.PostFormValue("pantrybundle_inventoryitemcode[_token]")) {
		writeJson(w, map[string]any{"message": "The CSRF token is invalid."})
		return
	}
	itemId, _ := strconv.ParseInt(r.PostFormValue("inventoryItem"), 10, 64)
	i := s.itemIndex(itemId)
	if i < 0 {
		writeJson(w, map[string]any{"error": "Item not found"})
		return
	}
	codeNumber := r.PostFormValue("pantrybundle_inventoryitemcode[codeNumber]")
	s.codes = append(s.codes, Code{ID: s.id(), CodeNumber: codeNumber, ItemID: itemId})

	message := fmt.Sprintf("Item Code %s for %s Added", codeNumber, s.items[i].Name)
	if s.LinkMessage != nil {
		message = s.LinkMessage(codeNumber, s.items[i].Name)
	}
	writeJson(w, map[string]any{"message": message})
}

func (s *Server) typeForm() string {
	return `<form method="post"><input id="pantrybundle_inventoryitemtype_name">` +
		hiddenToken("pantrybundle_inventoryitemtype__token", s.issueToken()) + `</form>`
}

func (s *Server) typeNewForm(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	writeHtml(w, s.typeForm())
}

func (s *Server) typeCreate(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.consumeToken(r.PostFormValue("pantrybundle_inventoryitemtype[_token]")) {
		writeHtml(w, `<div class="alert">The CSRF token is invalid.</div>`+s.typeForm())
		return
	}
	s.addType(r.PostFormValue("pantrybundle_inventoryitemtype[name]"))
	http.Redirect(w, r, "/inventoryitemtype/", http.StatusFound)
}

func (s *Server) typesPage(w http.ResponseWriter, r *http.Request) {
	writeHtml(w, `<table id="types"></table>`)
}

func (s *Server) typeEditForm(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, _ := pathId(r, "id")
	name := s.typeName(id)
	if name == "" {
		http.NotFound(w, r)
		return
	}
	writeHtml(w, fmt.Sprintf(
		`<form method="post"><input id="pantrybundle_inventoryitemtype_name" value="%s">%s</form>`+
			`<generic-delete-modal csrf-token="%s"></generic-delete-modal>`,
		html.EscapeString(name),
		hiddenToken("pantrybundle_inventoryitemtype__token", s.issueToken()),
		s.issueToken(),
	))
}

func (s *Server) typeDelete(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, _ := pathId(r, "id")
	if r.PostFormValue("_method") != "DELETE" || !s.consumeToken(r.PostFormValue("csrfToken")) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}
	if slices.ContainsFunc(s.items, func(item Item) bool { return item.TypeID == id }) {
		http.Error(w, "item type is in use", http.StatusConflict)
		return
	}
	s.types = slices.DeleteFunc(s.types, func(t Named) bool { return t.ID == id })
	http.Redirect(w, r, "/inventoryitemtype/", http.StatusFound)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.RejectUploads || r.PostFormValue("context") != "inventoryItemImages" {
		writeJson(w, map[string]any{"error": "upload rejected"})
		return
	}
	file, _, err := r.FormFile("fileupload")
	if err != nil {
		writeJson(w, map[string]any{"error": err.Error()})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := strconv.FormatInt(s.id(), 10)
	s.uploads[id] = image
	writeJson(w, map[string]any{"media": map[string]any{"id": id}})
}
