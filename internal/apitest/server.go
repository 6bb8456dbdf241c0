// Package apitest runs an in-memory storefront backend over httptest for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Product seeds the catalog.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Images      []string
	CategoryID  string
	SubCategory string
	Sizes       []string
	Bestseller  bool
	Date        time.Time
}

type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type user struct {
	id        string
	email     string
	username  string
	password  string
	isAdmin   bool
	createdAt time.Time
}

type category struct {
	id   string
	name string
}

type order struct {
	id        string
	userID    string
	items     []orderItem
	total     float64
	shipping  shipping
	status    string
	createdAt time.Time
}

type orderItem struct {
	ProductID string  `json:"productId"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

type shipping struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type failure struct {
	status  int
	message string
}

// Server is a fake of the storefront REST backend. Tokens are HS256 JWTs.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	secret      []byte
	tokenTTL    time.Duration
	users       map[string]*user
	categories  []category
	products    []Product
	orders      []*order
	idempotency map[string]string
	failures    []failure
	requests    []RecordedRequest
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		secret:      []byte("apitest-secret"),
		tokenTTL:    time.Hour,
		users:       make(map[string]*user),
		idempotency: make(map[string]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// URL of the API root, the value a client uses as its base URL.
func (s *Server) APIURL() string {
	return s.Server.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.record)
	r.Use(s.injectFailure)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)
		r.Get("/products", s.listProducts)
		r.Get("/categories", s.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/orders", s.createOrder)
			r.Get("/orders/user", s.listUserOrders)
			r.Get("/orders/{id}", s.getOrder)

			r.Group(func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Get("/orders", s.listOrders)
				r.Put("/orders/{id}", s.updateOrder)
				r.Post("/products", s.createProduct)
				r.Delete("/products/{id}", s.deleteProduct)
				r.Get("/users", s.listUsers)
				r.Delete("/users/{id}", s.deleteUser)
				r.Put("/users/{id}", s.updateUser)
			})
		})
	})
	return r
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, username, password string, isAdmin bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(email, username, password, isAdmin)
}

func (s *Server) addUser(email, username, password string, isAdmin bool) string {
	u := &user{
		id:        uuid.NewString(),
		email:     email,
		username:  username,
		password:  password,
		isAdmin:   isAdmin,
		createdAt: time.Now().UTC().Truncate(time.Second),
	}
	s.users[u.id] = u
	return u.id
}

func (s *Server) AddCategory(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.categories = append(s.categories, category{id: id, name: name})
	return id
}

// AddProduct seeds p and returns its id, generating one when empty.
func (s *Server) AddProduct(p Product) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC().Truncate(time.Second)
	}
	s.products = append(s.products, p)
	return p.ID
}

// FailNext makes the next request answer status with message, whatever its route.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, message: message})
}

// Token issues a valid token for userID.
func (s *Server) Token(userID string) string {
	return s.sign(userID, time.Now().Add(s.tokenTTL))
}

// ExpiredToken issues a correctly signed token that expired an hour ago.
func (s *Server) ExpiredToken(userID string) string {
	return s.sign(userID, time.Now().Add(-time.Hour))
}

func (s *Server) sign(userID string, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (s *Server) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}

// Count reports how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// OrderCount is the number of orders stored by the backend.
func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// SetOrderStatus changes an order behind the client's back.
func (s *Server) SetOrderStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.findOrder(id); o != nil {
		o.status = status
	}
}

// AddOrder stores an order for userID and returns its id.
func (s *Server) AddOrder(userID string, total float64, status string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &order{
		id:        uuid.NewString(),
		userID:    userID,
		total:     total,
		status:    status,
		createdAt: time.Now().UTC().Truncate(time.Second),
	}
	s.orders = append(s.orders, o)
	return o.id
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api"),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if f != nil {
			respondError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
