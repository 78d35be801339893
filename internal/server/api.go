package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/session"
)

// fieldChange is the body of a field update. A set field is toggled when
// Option is present; any other field takes Value.
type fieldChange struct {
	Value   any     `json:"value"`
	Option  *string `json:"option,omitempty"`
	Checked bool    `json:"checked,omitempty"`
}

type fieldResult struct {
	Message   string `json:"message"`
	Valid     bool   `json:"valid"`
	CanSubmit bool   `json:"canSubmit"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	if err := ctrl.Reset(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	var body fieldChange
	if err := decodeBody(w, r, &body, false); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.PathValue("name")
	var err error
	var result fieldResult
	if body.Option != nil {
		res, toggleErr := ctrl.Toggle(r.Context(), name, *body.Option, body.Checked)
		result.Message, result.Valid, err = res.Message, res.Valid, toggleErr
	} else {
		res, changeErr := ctrl.Change(r.Context(), name, body.Value)
		result.Message, result.Valid, err = res.Message, res.Valid, changeErr
	}
	switch {
	case errors.Is(err, formstate.ErrUnknownField):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, formstate.ErrNotASet):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}
	result.CanSubmit = ctrl.CanSubmit()
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.apiController(w, r)
	if !ok {
		return
	}
	var values map[string]any
	if err := decodeBody(w, r, &values, true); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(values) > 0 {
		if err := ctrl.Apply(r.Context(), values); err != nil {
			if errors.Is(err, formstate.ErrUnknownField) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.internalError(w, r, err)
			return
		}
	}
	outcome, err := ctrl.Submit(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	status := http.StatusOK
	if !outcome.Accepted {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, outcome)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := s.openAPIDocument(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// apiController loads the visitor's controller for the {id} path value and
// writes the error response when it cannot.
func (s *Server) apiController(w http.ResponseWriter, r *http.Request) (*formstate.Controller, bool) {
	namespace, ok := session.FromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	form, err := s.orch.Form(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, definitions.ErrUnknownForm) {
			s.writeError(w, http.StatusNotFound, err.Error())
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

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, apiError{Error: message})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
