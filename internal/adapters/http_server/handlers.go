package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"porchlight/internal/app"
	"porchlight/internal/domain"
)

type StreetViewSource interface {
	ImageURL(address string) string
}

type Handlers struct {
	Search     *app.SearchService
	Valuations *app.ValuationService
	Inquiries  *app.InquiryService
	StreetView StreetViewSource
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/listings/search", h.searchListings)
	s.mux.Get("/v1/listings/recommended", h.recommendedListings)
	s.mux.Post("/v1/valuations", h.createValuation)
	s.mux.Post("/v1/inquiries", h.createInquiry)
	s.mux.Post("/v1/streetview", h.streetView)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- wire shapes ----

type wireListing struct {
	ID       int64          `json:"id"`
	Address  string         `json:"address"`
	City     string         `json:"city"`
	County   string         `json:"county"`
	Zip      string         `json:"zip"`
	Price    string         `json:"price"`
	Beds     string         `json:"beds,omitempty"`
	Baths    string         `json:"baths,omitempty"`
	Sqft     string         `json:"sqft,omitempty"`
	PriceNum float64        `json:"priceNum"`
	BedsNum  float64        `json:"bedsNum"`
	BathsNum float64        `json:"bathsNum"`
	SqftNum  float64        `json:"sqftNum"`
	Coords   *domain.Coords `json:"coords,omitempty"`
	Images   []string       `json:"images,omitempty"`
	Blurb    *string        `json:"blurb,omitempty"`
}

func toWire(ls []domain.Listing) []wireListing {
	out := make([]wireListing, len(ls))
	for i, l := range ls {
		out[i] = wireListing{
			ID: l.ID, Address: l.Address, City: l.City, County: l.County, Zip: l.Zip,
			Price: l.Price, Beds: l.Beds, Baths: l.Baths, Sqft: l.Sqft,
			PriceNum: l.PriceNum, BedsNum: l.BedsNum, BathsNum: l.BathsNum, SqftNum: l.SqftNum,
			Coords: l.Coords, Images: l.Images, Blurb: l.Blurb,
		}
	}
	return out
}

type searchResponse struct {
	Listings       []wireListing        `json:"listings"`
	NextPageCursor *string              `json:"nextPageCursor"`
	ZipFallback    *domain.FallbackInfo `json:"zipFallback,omitempty"`
}

// ---- param parsing ----

func parseFloatParam(q map[string][]string, key string) (*float64, error) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 || vs[0] == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(vs[0], 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &f, nil
}

func strParam(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func parseFilterSpec(r *http.Request) (domain.FilterSpec, error) {
	q := r.URL.Query()
	var spec domain.FilterSpec
	var err error

	if spec.MinPrice, err = parseFloatParam(q, "minPrice"); err != nil {
		return spec, err
	}
	if spec.MaxPrice, err = parseFloatParam(q, "maxPrice"); err != nil {
		return spec, err
	}
	if spec.Beds, err = parseFloatParam(q, "beds"); err != nil {
		return spec, err
	}
	if spec.Baths, err = parseFloatParam(q, "baths"); err != nil {
		return spec, err
	}
	spec.ExactBeds = q.Get("exactBeds") == "true"

	if cs := q.Get("cities"); cs != "" {
		for _, c := range strings.Split(cs, ",") {
			if c = strings.TrimSpace(c); c != "" {
				spec.Cities = append(spec.Cities, c)
			}
		}
	}
	spec.County = strParam(r, "county")
	spec.Zip = strParam(r, "zip")
	spec.CitySearch = strParam(r, "citySearch")
	spec.Cursor = strParam(r, "cursor")

	if of := q.Get("orderField"); of != "" {
		dir := domain.Direction(q.Get("orderDirection"))
		if dir == "" {
			dir = domain.Asc
		}
		spec.Order = &domain.Order{Field: fieldFor(of), Direction: dir}
	}

	if ps := q.Get("pageSize"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n <= 0 || n > 100 {
			return spec, errors.New("pageSize must be an integer between 1 and 100")
		}
		spec.PageSize = n
	}
	return spec, nil
}

// fieldFor maps the wire sort names onto store fields. Unknown names pass
// through and fail validation in the builder.
func fieldFor(name string) domain.Field {
	switch name {
	case "price", "PriceNum":
		return domain.FieldPrice
	case "beds", "BedsNum":
		return domain.FieldBeds
	case "baths", "BathsNum":
		return domain.FieldBaths
	case "sqft", "SqFtNum":
		return domain.FieldSqft
	}
	return domain.Field(name)
}

func isValidationErr(err error) bool {
	return errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, domain.ErrSortConflict) ||
		errors.Is(err, domain.ErrTooManyCities) ||
		errors.Is(err, domain.ErrInvalidCursor)
}

// ---- handlers ----

func (h *Handlers) searchListings(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	res, err := h.Search.Search(r.Context(), spec)
	if err != nil {
		if isValidationErr(err) {
			writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		log.Error().Err(err).Msg("search failed")
		writeProblem(w, http.StatusInternalServerError, "Search failed", "")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Listings:       toWire(res.Listings),
		NextPageCursor: res.NextCursor,
		ZipFallback:    res.Fallback,
	})
}

func (h *Handlers) recommendedListings(w http.ResponseWriter, r *http.Request) {
	items, err := h.Search.Recommended(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		log.Error().Err(err).Msg("recommended failed")
		writeProblem(w, http.StatusInternalServerError, "Lookup failed", "")
		return
	}
	resp := struct {
		Listings []wireListing `json:"listings"`
	}{Listings: toWire(items)}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write recommended body")
	}
}

// userIdentity trusts the gateway-injected headers; verifying them is the
// gateway's job, not ours.
func userIdentity(r *http.Request) (id, email string) {
	return r.Header.Get("X-User-ID"), r.Header.Get("X-User-Email")
}

type addressRequest struct {
	Address string `json:"address"`
}

func decodeAddress(w http.ResponseWriter, r *http.Request) (addressRequest, bool) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return req, false
	}
	return req, true
}

func (h *Handlers) createValuation(w http.ResponseWriter, r *http.Request) {
	uid, email := userIdentity(r)
	if uid == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing user identity")
		return
	}
	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	v, err := h.Valuations.Value(r.Context(), uid, email, req.Address)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeProblem(w, http.StatusForbidden, "Valuation limit reached", "")
	case errors.Is(err, domain.ErrInvalidFilter):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		log.Error().Err(err).Msg("valuation failed")
		writeProblem(w, http.StatusBadGateway, "Valuation failed", "")
	}
}

func (h *Handlers) createInquiry(w http.ResponseWriter, r *http.Request) {
	uid, _ := userIdentity(r)
	if uid == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing user identity")
		return
	}
	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if err := h.Inquiries.Record(r.Context(), uid, req.Address); err != nil {
		if errors.Is(err, domain.ErrInvalidFilter) {
			writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		log.Error().Err(err).Msg("inquiry failed")
		writeProblem(w, http.StatusInternalServerError, "Inquiry failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) streetView(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "address is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": h.StreetView.ImageURL(req.Address)})
}
