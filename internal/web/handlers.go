package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      ops.Env
	renderer *Renderer

	// Serializes ledger access; even a read may roll the day over.
	mu sync.Mutex
}

// HandleDay handles GET /days/{date}, where date is YYYY-MM-DD or "today".
// Repeated collapse parameters fold meal sections.
func (h *Handlers) HandleDay(w http.ResponseWriter, r *http.Request) {
	input := viewInput(r)

	h.mu.Lock()
	view, err := ops.ViewDay(r.Context(), h.env, input)
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "day", DayPageData{
		PageData: PageData{
			Title:   view.Date,
			Version: h.renderer.version,
			Nav:     "day",
		},
		View:      view,
		Sections:  sectionViews(view, input.Collapsed),
		MealTypes: entry.MealOrder,
	})
}

// HandleDayJSON handles GET /api/days/{date}.
func (h *Handlers) HandleDayJSON(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	view, err := ops.ViewDay(r.Context(), h.env, viewInput(r))
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, view)
}

// HandleReport handles GET /days/{date}/report, the markdown summary as HTML.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	rep, err := ops.Report(r.Context(), h.env, viewInput(r))
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "report", ReportPageData{
		PageData: PageData{
			Title:   "Report " + rep.Date,
			Version: h.renderer.version,
			Nav:     "day",
		},
		Date:         rep.Date,
		RenderedHTML: renderMarkdown(rep.Markdown),
	})
}

// HandleDays handles GET /days, the list of recorded days.
func (h *Handlers) HandleDays(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	result, err := ops.ListDays(r.Context(), h.env, ops.ListDaysInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "days", DaysPageData{
		PageData: PageData{
			Title:   "Days",
			Version: h.renderer.version,
			Nav:     "days",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleAdd handles POST /entries, the add form on today's page.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.AddInput{
		Name:     r.FormValue("name"),
		MealType: r.FormValue("meal_type"),
	}
	fields := []struct {
		name string
		dst  *int
	}{
		{"calories", &input.Calories},
		{"protein", &input.Protein},
		{"carbs", &input.Carbs},
		{"fat", &input.Fat},
	}
	for _, f := range fields {
		v, err := parseFormInt(r, f.name)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		*f.dst = v
	}

	h.mu.Lock()
	result, err := ops.AddEntry(r.Context(), h.env, input)
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusCreated, result)
		return
	}
	http.Redirect(w, r, "/days/today", http.StatusSeeOther)
}

// HandleRemove handles POST /entries/{id}/remove.
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("entry id is required"))
		return
	}

	h.mu.Lock()
	result, err := ops.RemoveEntry(r.Context(), h.env, ops.RemoveInput{ID: id})
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/days/today", http.StatusSeeOther)
}

// HandleClear handles POST /days/today/clear. The form must carry confirm=true.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	h.mu.Lock()
	result, err := ops.ClearDay(r.Context(), h.env, ops.ClearInput{})
	h.mu.Unlock()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/days/today", http.StatusSeeOther)
}

// viewInput reads the date path value and the collapse parameters.
func viewInput(r *http.Request) ops.ViewInput {
	date := r.PathValue("date")
	if date == "today" {
		date = ""
	}
	return ops.ViewInput{
		Date:      date,
		Offset:    parseIntParam(r, "offset", 0),
		Collapsed: r.URL.Query()["collapse"],
	}
}

// sectionViews pairs each section with a link that flips its folding and
// keeps the others as they are.
func sectionViews(view *ops.ViewOutput, collapsed []string) []SectionView {
	out := make([]SectionView, 0, len(view.Sections))
	for _, sec := range view.Sections {
		q := url.Values{}
		for _, c := range collapsed {
			if !strings.EqualFold(strings.TrimSpace(c), string(sec.Key)) {
				q.Add("collapse", c)
			}
		}
		if sec.Expanded {
			q.Add("collapse", string(sec.Key))
		}
		href := "/days/" + view.Date
		if enc := q.Encode(); enc != "" {
			href += "?" + enc
		}
		out = append(out, SectionView{
			Key:       sec.Key,
			Header:    sec.Header(),
			Expanded:  sec.Expanded,
			Entries:   sec.Entries,
			ToggleURL: href,
		})
	}
	return out
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseFormInt reads a whole-number form field. Blank means 0.
func parseFormInt(r *http.Request, name string) (int, error) {
	s := strings.TrimSpace(r.FormValue(name))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(name + " must be a whole number")
	}
	return v, nil
}
