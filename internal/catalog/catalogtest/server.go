// Package catalogtest serves catalog products from memory.
package catalogtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/bibhubhatta/wecare/lib/upc"
)

// RitzUPC is a product present in the fixture catalog.
const RitzUPC = "044000882105"

// Ritz returns the catalog document of RitzUPC, imageUrl is the value of
// primaryImage.default.
func Ritz(imageUrl string) map[string]any {
	return map[string]any{
		"name":            "RITZ Peanut Butter Sandwich Crackers, 8 - 1.38 oz Snack Packs",
		"defaultCategory": "Crackers",
		"unitsOfSize": map[string]any{
			"label": "Ounces",
			"size":  11.04,
		},
		"description":  "RITZ Peanut Butter Sandwich Crackers.\nMade with real peanut butter.",
		"ingredients":  "Enriched Flour; Peanut Butter; Sugar; ",
		"primaryImage": map[string]any{"default": imageUrl},
		"nutritionProfiles": map[string]any{
			// raw json keeps the key order
			"nutrition": json.RawMessage(`{
				"Total Fat": {"size": 9, "unit": "Grams", "abbreviation": "g", "percentDailyValue": 12},
				"Sodium": {"size": "220", "unit": "Milligrams", "abbreviation": "mg", "percentDailyValue": null}
			}`),
		},
	}
}

type Server struct {
	*httptest.Server

	mutex    sync.Mutex
	products map[string]any
	images   map[string][]byte
	requests map[string]int
}

func NewServer() *Server {
	s := &Server{
		products: map[string]any{},
		images:   map[string][]byte{},
		requests: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{code}", s.product)
	mux.HandleFunc("GET /images/{name}", s.image)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseUrl is the product endpoint to configure the client with.
func (s *Server) BaseUrl() string {
	return s.URL + "/products/"
}

// ImageUrl is where an image added with AddImage is served.
func (s *Server) ImageUrl(name string) string {
	return s.URL + "/images/" + name
}

func (s *Server) AddProduct(code string, product any) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.products[upc.Pad14(code)] = product
}

func (s *Server) AddImage(name string, image []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.images[name] = image
}

// Requests returns how many times a product was requested.
func (s *Server) Requests(code string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.requests[upc.Pad14(code)]
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	code := r.PathValue("code")
	s.requests[code]++
	if !strings.EqualFold(r.Header.Get("x-site-host"), "https://www.shoprite.com") {
		http.Error(w, "unknown site", http.StatusForbidden)
		return
	}
	product, ok := s.products[code]
	if !ok {
		http.Error(w, `{"message":"Product not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("content-type", "application/json")
	json.NewEncoder(w).Encode(product)
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	image, ok := s.images[r.PathValue("name")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("content-type", "image/jpeg")
	w.Write(image)
}
