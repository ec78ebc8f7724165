package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/export"
	"github.com/sells-group/choropleth/internal/source"
	"github.com/sells-group/choropleth/internal/store"
	"github.com/sells-group/choropleth/internal/symbology"
	"github.com/sells-group/choropleth/internal/thematic"
)

// inlineValues serves the same samples for any attribute.
type inlineValues []float64

func (v inlineValues) Values(context.Context, string) ([]float64, error) { return v, nil }

type classifyRequest struct {
	Attribute string    `json:"attribute"`
	Mode      string    `json:"mode,omitempty"`
	Classes   int       `json:"classes,omitempty"`
	Breaks    []float64 `json:"breaks,omitempty"`
	Values    []float64 `json:"values,omitempty"`
	Name      string    `json:"name,omitempty"`
}

type classification struct {
	Attribute  string                 `json:"attribute"`
	Mode       string                 `json:"mode"`
	Requested  int                    `json:"requested,omitempty"`
	Classes    int                    `json:"classes"`
	Degenerate bool                   `json:"degenerate,omitempty"`
	Breaks     []float64              `json:"breaks"`
	Legend     []symbology.LegendItem `json:"legend"`
	Document   symbology.Document     `json:"document"`
	Style      *store.Style           `json:"style,omitempty"`
}

func describe(rs *symbology.RangeSet, res *classify.Result) classification {
	c := classification{
		Attribute: rs.Attribute(),
		Mode:      rs.Mode().String(),
		Classes:   rs.Len(),
		Legend:    rs.LegendItems(symbology.LegendOptions{IncludeHidden: true}),
		Document:  rs.ToDocument(),
	}
	if res != nil {
		c.Requested = res.Requested
		c.Degenerate = res.Degenerate
		c.Breaks = res.Breaks
		return c
	}
	for i, r := range rs.Ranges() {
		if i == 0 {
			c.Breaks = append(c.Breaks, r.Lower())
		}
		c.Breaks = append(c.Breaks, r.Upper())
	}
	return c
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Attribute == "" {
		writeError(w, http.StatusBadRequest, "attribute is required")
		return
	}

	var (
		rs  *symbology.RangeSet
		res *classify.Result
		err error
	)
	if len(req.Breaks) > 0 {
		rs, err = s.tmpl.FromBreaks(req.Attribute, req.Breaks)
	} else {
		var src symbology.ValueSource = s.src
		if req.Values != nil {
			src = inlineValues(req.Values)
		}
		if src == nil {
			writeError(w, http.StatusBadRequest, "values are required when no feature source is configured")
			return
		}
		mode := s.defaultMode
		if req.Mode != "" {
			if mode, err = classify.ParseMode(req.Mode); err != nil {
				writeErr(w, err)
				return
			}
		}
		n := req.Classes
		if n == 0 {
			n = s.defaultClasses
		}
		rs, res, err = s.tmpl.Build(r.Context(), src, req.Attribute, mode, n)
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	out := describe(rs, res)
	status := http.StatusOK
	if req.Name != "" {
		st, err := s.store.CreateStyle(r.Context(), req.Name, rs)
		if err != nil {
			writeErr(w, err)
			return
		}
		out.Style = st
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

type thematicRequest struct {
	Requests []thematic.Request `json:"requests"`
}

func (s *Server) handleThematic(w http.ResponseWriter, r *http.Request) {
	var req thematicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.src == nil {
		writeError(w, http.StatusBadRequest, "no feature source configured")
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests are required")
		return
	}
	for i := range req.Requests {
		if req.Requests[i].Attribute == "" {
			writeError(w, http.StatusBadRequest, "every request needs an attribute")
			return
		}
		if req.Requests[i].Classes == 0 {
			req.Requests[i].Classes = s.defaultClasses
		}
	}

	outcomes, err := s.builder.Build(r.Context(), s.src, req.Requests)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]classification, len(outcomes))
	for i, o := range outcomes {
		out[i] = describe(o.RangeSet, o.Result)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListStyles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.StyleFilter{Attribute: q.Get("attribute")}
	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}

	styles, err := s.store.ListStyles(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if styles == nil {
		styles = []store.Style{}
	}
	writeJSON(w, http.StatusOK, styles)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (*store.Style, bool) {
	st, err := store.Resolve(r.Context(), s.store, chi.URLParam(r, "ref"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return st, true
}

type styleResponse struct {
	*store.Style
	Document symbology.Document `json:"document"`
}

func (s *Server) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, styleResponse{Style: st, Document: st.RangeSet.ToDocument()})
}

func (s *Server) handleDeleteStyle(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteStyle(r.Context(), st.ID); err != nil {
		writeErr(w, err)
		return
	}
	s.cache.Invalidate(st.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	opts := symbology.LegendOptions{
		IncludeHidden: r.URL.Query().Get("hidden") == "true",
		CollapseSizes: r.URL.Query().Get("collapse") == "true",
	}
	variant := "h=" + strconv.FormatBool(opts.IncludeHidden) + ",c=" + strconv.FormatBool(opts.CollapseSizes)

	w.Header().Set("Content-Type", "application/json")
	if cached := s.cache.Get(st.ID, st.UpdatedAt, variant); cached != nil {
		w.Header().Set("X-Cache", "hit")
		_, _ = w.Write(cached)
		return
	}

	data, err := json.Marshal(st.RangeSet.LegendItems(opts))
	if err != nil {
		writeErr(w, eris.Wrap(err, "api: encode legend"))
		return
	}
	data = append(data, '\n')
	s.cache.Put(st.ID, st.UpdatedAt, variant, data)
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(data)
}

type checkRequest struct {
	Checked bool `json:"checked"`
}

func (s *Server) handleCheckLegendItem(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	var req checkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key := chi.URLParam(r, "key")
	if !st.RangeSet.CheckLegendItem(key, req.Checked) {
		writeError(w, http.StatusNotFound, "unknown legend key "+key)
		return
	}
	if err := s.store.UpdateStyle(r.Context(), st.ID, st.RangeSet); err != nil {
		writeErr(w, err)
		return
	}
	s.cache.Invalidate(st.ID)
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "checked": st.RangeSet.LegendItemChecked(key)})
}

type lookupResponse struct {
	Value     float64          `json:"value"`
	Matched   bool             `json:"matched"`
	LegendKey string           `json:"legend_key,omitempty"`
	Label     string           `json:"label,omitempty"`
	Style     *symbology.Style `json:"style,omitempty"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}

	out := lookupResponse{Value: v}
	if key, ok := st.RangeSet.LegendKeyForValue(v); ok {
		out.Matched = true
		out.LegendKey = key
		i, _ := strconv.Atoi(key)
		if rg, ok := st.RangeSet.Range(i); ok {
			out.Label = rg.Label()
		}
		if sym, ok := st.RangeSet.SymbolForValue(v); ok {
			rendered := sym.Render()
			out.Style = &rendered
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	mem, err := source.ParseGeoJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid GeoJSON")
		return
	}
	s.writeStyled(w, r, st, mem)
}

func (s *Server) handleSourceFeatures(w http.ResponseWriter, r *http.Request) {
	st, ok := s.resolve(w, r)
	if !ok {
		return
	}
	if s.src == nil {
		writeError(w, http.StatusBadRequest, "no feature source configured")
		return
	}
	s.writeStyled(w, r, st, s.src)
}

func (s *Server) writeStyled(w http.ResponseWriter, r *http.Request, st *store.Style, src source.Source) {
	features, err := src.Features(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	fc, sum := export.FeatureCollection(features, st.RangeSet, export.Options{
		IncludeUnclassified: r.URL.Query().Get("all") == "true",
	})
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Classified", strconv.Itoa(sum.Classified))
	if err := export.WriteGeoJSON(w, fc); err != nil {
		writeErr(w, err)
	}
}
