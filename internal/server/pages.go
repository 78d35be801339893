package server

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/flow"
	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/session"
)

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.router.Resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case page.Kind == flow.PageForm && r.Method == http.MethodPost:
		s.postForm(w, r, page)
	case r.Method != http.MethodGet && r.Method != http.MethodHead:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	case page.Kind == flow.PageHome:
		s.getHome(w, r)
	case page.Kind == flow.PageForm:
		s.getForm(w, r, page)
	case page.Kind == flow.PageResult:
		s.getResult(w, r, page)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) getHome(w http.ResponseWriter, r *http.Request) {
	body, err := s.orch.GenerateHome(r.Context(), s.request(""), s.router.Home(s.title))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request, page flow.Page) {
	ctrl, ok := s.pageController(w, r, page)
	if !ok {
		return
	}
	s.renderForm(w, r, page, ctrl, http.StatusOK, nil)
}

func (s *Server) postForm(w http.ResponseWriter, r *http.Request, page flow.Page) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	ctrl, ok := s.pageController(w, r, page)
	if !ok {
		return
	}

	if r.PostForm.Get(render.ActionField) == render.ActionReset {
		if err := ctrl.Reset(r.Context()); err != nil {
			s.internalError(w, r, err)
			return
		}
		http.Redirect(w, r, page.Path, http.StatusSeeOther)
		return
	}

	if err := ctrl.Apply(r.Context(), postedValues(ctrl.Form(), r)); err != nil {
		s.internalError(w, r, err)
		return
	}
	outcome, err := ctrl.Submit(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if outcome.Accepted {
		next := outcome.Next
		if next == "" {
			next = page.Path
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.renderForm(w, r, page, ctrl, http.StatusUnprocessableEntity, &outcome)
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request, page flow.Page) {
	namespace, _ := session.FromContext(r.Context())
	view, err := flow.Summarise(r.Context(), s.defs, s.store, namespace, page.ResultID)
	if err != nil {
		if errors.Is(err, definitions.ErrUnknownResult) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, r, err)
		return
	}
	body, err := s.orch.GenerateResult(r.Context(), s.request(""), view)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, page flow.Page, ctrl *formstate.Controller, status int, outcome *formstate.Outcome) {
	snap := ctrl.Snapshot()
	req := s.request(page.FormID)
	req.RenderOptions = render.RenderOptions{
		Action:    page.Path,
		APIBase:   "/api/forms/" + page.FormID,
		Values:    snap.Values,
		Errors:    snap.Errors,
		Validity:  snap.Validity,
		Consent:   snap.Consent,
		CanSubmit: snap.CanSubmit,
	}
	if outcome != nil {
		req.RenderOptions.ConsentMissing = outcome.ConsentMissing
		req.RenderOptions.FormErrors = render.SummariseFieldErrors(outcome.Errors, ctrl.Form().FieldNames())
	}
	body, err := s.orch.Generate(r.Context(), req)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeHTML(w, status, body)
}

func (s *Server) pageController(w http.ResponseWriter, r *http.Request, page flow.Page) (*formstate.Controller, bool) {
	namespace, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return nil, false
	}
	form, err := s.orch.Form(r.Context(), page.FormID)
	if err != nil {
		if errors.Is(err, definitions.ErrUnknownForm) {
			http.NotFound(w, r)
			return nil, false
		}
		s.internalError(w, r, err)
		return nil, false
	}
	ctrl, err := s.controller(r.Context(), namespace, form)
	if err != nil {
		s.internalError(w, r, err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) request(formID string) orchestrator.Request {
	return orchestrator.Request{
		FormID:       formID,
		ThemeName:    s.themeName,
		ThemeVariant: s.themeVariant,
	}
}

// postedValues reads a page post. Unchecked checkboxes are absent from the
// body, so sets and flags are always written; text fields only when sent.
func postedValues(form model.FormModel, r *http.Request) map[string]any {
	values := make(map[string]any, len(form.Fields)+1)
	for _, field := range form.Fields {
		switch field.Type {
		case model.FieldTypeSet:
			selected := r.PostForm[field.Name]
			if selected == nil {
				selected = []string{}
			}
			values[field.Name] = selected
		case model.FieldTypeBoolean:
			values[field.Name] = r.PostForm.Has(field.Name)
		default:
			if r.PostForm.Has(field.Name) {
				values[field.Name] = r.PostForm.Get(field.Name)
			}
		}
	}
	values[form.ConsentName()] = r.PostForm.Has(form.ConsentName())
	return values
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
