package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/usecase"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid request body")
		return false
	}
	return true
}

// ---- coupons ----

func (s *Server) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.coupons.Create(r.Context(), ActorFrom(r.Context()), req.draft())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Coupon submitted for approval", "coupon": toCouponDTO(c)})
}

func parsePrice(q string, field string) (*int64, error) {
	if q == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(q, 10, 64)
	if err != nil || v < 0 {
		return nil, domain.Validation("Invalid price filter", domain.FieldError{Field: field, Message: field + " must be a non-negative integer"})
	}
	return &v, nil
}

func (s *Server) listCoupons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, err := parsePrice(q.Get("minPrice"), "minPrice")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	maxPrice, err := parsePrice(q.Get("maxPrice"), "maxPrice")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	cs, err := s.coupons.List(r.Context(), usecase.CouponQuery{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponDTOs(cs))
}

func (s *Server) getCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := s.coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponDTO(c))
}

func (s *Server) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var req updateCouponRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.coupons.Update(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Coupon updated successfully", "coupon": toCouponDTO(c)})
}

func (s *Server) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := s.coupons.Delete(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Coupon deleted successfully"})
}

func (s *Server) myCoupons(w http.ResponseWriter, r *http.Request) {
	cs, err := s.coupons.ListMine(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponDTOs(cs))
}

// ---- purchases ----

func (s *Server) requestPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decode(w, r, &req) {
		return
	}
	p, c, err := s.purchases.Request(r.Context(), ActorFrom(r.Context()), req.CouponID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Purchase request sent to seller", "purchase": toBuyerPurchaseDTO(p, c.Title)})
}

func (s *Server) acceptPurchase(w http.ResponseWriter, r *http.Request) {
	p, c, err := s.purchases.Accept(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Purchase request accepted", "purchase": toPurchaseDTO(p, c.Title)})
}

func (s *Server) payPurchase(w http.ResponseWriter, r *http.Request) {
	p, c, err := s.payments.Pay(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Payment successful! Purchase completed.", "purchase": toBuyerPurchaseDTO(p, c.Title)})
}

func (s *Server) buyerPurchases(w http.ResponseWriter, r *http.Request) {
	vs, err := s.purchases.ListAsBuyer(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toBuyerViews(vs))
}

func (s *Server) sellerPurchases(w http.ResponseWriter, r *http.Request) {
	vs, err := s.purchases.ListAsSeller(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSellerViews(vs))
}

func (s *Server) pendingPurchases(w http.ResponseWriter, r *http.Request) {
	vs, err := s.purchases.ListPending(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSellerViews(vs))
}

// ---- admin ----

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	cs, err := s.moderation.ListSubmissions(r.Context(), ActorFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponDTOs(cs))
}

type moderationResult struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (s *Server) approveSubmission(w http.ResponseWriter, r *http.Request) {
	c, err := s.moderation.Approve(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Coupon approved successfully",
		"coupon":  moderationResult{ID: c.ID, Title: c.Title, Status: string(c.Status)},
	})
}

func (s *Server) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	c, err := s.moderation.Reject(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Coupon rejected successfully",
		"coupon":  moderationResult{ID: c.ID, Title: c.Title, Status: string(c.Status)},
	})
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	rep, err := s.stats.Revenue(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTO(rep))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.stats.Dashboard(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(d))
}
