package apitest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respondError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		s.mu.Lock()
		u, found := s.users[claims.Subject]
		s.mu.Unlock()
		if !found {
			respondError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).isAdmin {
			respondError(w, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}

type userResponse struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
	Token     string `json:"token,omitempty"`
}

func toUserResponse(u *user) userResponse {
	return userResponse{
		ID:        u.id,
		Email:     u.email,
		Username:  u.username,
		IsAdmin:   u.isAdmin,
		CreatedAt: u.createdAt.Format(time.RFC3339),
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if strings.EqualFold(u.email, req.Email) && u.password == req.Password {
			found = u
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp := toUserResponse(found)
	resp.Token = s.Token(found.id)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.email, req.Email) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	id := s.addUser(req.Email, req.Username, req.Password, false)
	respondJSON(w, http.StatusCreated, toUserResponse(s.users[id]))
}

type categoryResponse struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type productResponse struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Image       []string         `json:"image"`
	Category    categoryResponse `json:"category"`
	SubCategory string           `json:"subCategory"`
	Sizes       []string         `json:"sizes"`
	Bestseller  bool             `json:"bestseller"`
	Date        int64            `json:"date"`
}

func (s *Server) toProductResponse(p Product) productResponse {
	cat := categoryResponse{ID: p.CategoryID}
	for _, c := range s.categories {
		if c.id == p.CategoryID {
			cat.Name = c.name
		}
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Images,
		Category:    cat,
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		Bestseller:  p.Bestseller,
		Date:        p.Date.UnixMilli(),
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := make([]productResponse, 0, len(s.products))
	for _, p := range s.products {
		resp = append(resp, s.toProductResponse(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := make([]categoryResponse, 0, len(s.categories))
	for _, c := range s.categories {
		resp = append(resp, categoryResponse{ID: c.id, Name: c.name})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Category    string   `json:"category"`
		SubCategory string   `json:"subCategory"`
		Sizes       []string `json:"sizes"`
		Image       []string `json:"image"`
		Bestseller  bool     `json:"bestseller"`
		Date        string   `json:"date"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Price <= 0 {
		respondError(w, http.StatusBadRequest, "name and price are required")
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		date = time.Now().UTC()
	}
	p := Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Image,
		CategoryID:  req.Category,
		SubCategory: req.SubCategory,
		Sizes:       req.Sizes,
		Bestseller:  req.Bestseller,
		Date:        date.Truncate(time.Millisecond),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	respondJSON(w, http.StatusCreated, s.toProductResponse(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			respondJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Product not found")
}

type orderResponse struct {
	ID              string      `json:"_id"`
	User            string      `json:"user"`
	Items           []orderItem `json:"items"`
	TotalAmount     float64     `json:"totalAmount"`
	ShippingDetails shipping    `json:"shippingDetails"`
	Status          string      `json:"status"`
	CreatedAt       string      `json:"createdAt"`
}

func toOrderResponse(o *order) orderResponse {
	items := o.items
	if items == nil {
		items = []orderItem{}
	}
	return orderResponse{
		ID:              o.id,
		User:            o.userID,
		Items:           items,
		TotalAmount:     o.total,
		ShippingDetails: o.shipping,
		Status:          o.status,
		CreatedAt:       o.createdAt.Format(time.RFC3339),
	}
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items           []orderItem `json:"items"`
		TotalAmount     float64     `json:"totalAmount"`
		ShippingDetails shipping    `json:"shippingDetails"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "No order items")
		return
	}

	u := currentUser(r)
	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, seen := s.idempotency[key]; key != "" && seen {
		respondJSON(w, http.StatusCreated, toOrderResponse(s.findOrder(id)))
		return
	}
	o := &order{
		id:        uuid.NewString(),
		userID:    u.id,
		items:     req.Items,
		total:     req.TotalAmount,
		shipping:  req.ShippingDetails,
		status:    "pending",
		createdAt: time.Now().UTC().Truncate(time.Second),
	}
	s.orders = append(s.orders, o)
	if key != "" {
		s.idempotency[key] = o.id
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.respondOrders(w, func(*order) bool { return true })
}

func (s *Server) listUserOrders(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.respondOrders(w, func(o *order) bool { return o.userID == u.id })
}

func (s *Server) respondOrders(w http.ResponseWriter, keep func(*order) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := make([]orderResponse, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			resp = append(resp, toOrderResponse(o))
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(chi.URLParam(r, "id"))
	if o == nil || (o.userID != u.id && !u.isAdmin) {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(chi.URLParam(r, "id"))
	if o == nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	o.status = req.Status
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (s *Server) findOrder(id string) *order {
	for _, o := range s.orders {
		if o.id == id {
			return o
		}
	}
	return nil
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := make([]userResponse, 0, len(s.users))
	for _, u := range s.users {
		resp = append(resp, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	u.isAdmin = req.IsAdmin
	respondJSON(w, http.StatusOK, toUserResponse(u))
}
