package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/deprank/pkg/buildinfo"
	deperrors "github.com/matzehuels/deprank/pkg/errors"
	"github.com/matzehuels/deprank/pkg/rank"
)

type rankRequest struct {
	Input  string `json:"input"`
	Strict *bool  `json:"strict"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleRankQuery(w http.ResponseWriter, r *http.Request) {
	strict, err := s.strictParam(r, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.rank(w, r, r.URL.Query().Get("q"), strict)
}

func (s *Server) handleRankBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, deperrors.New(deperrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.fail(w, r, deperrors.Wrap(deperrors.ErrCodeInvalidInput, err, "read request body"))
		return
	}

	req := rankRequest{Input: string(body)}
	if isJSON(r.Header.Get("Content-Type")) {
		req = rankRequest{}
		if err := json.Unmarshal(body, &req); err != nil {
			s.fail(w, r, deperrors.Wrap(deperrors.ErrCodeInvalidInput, err, "malformed JSON body"))
			return
		}
	}

	strict, err := s.strictParam(r, req.Strict)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.rank(w, r, req.Input, strict)
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request, input string, strict bool) {
	if len(rank.Tokenize(input)) == 0 {
		s.fail(w, r, deperrors.New(deperrors.ErrCodeInvalidInput, "no package names or repositories in input"))
		return
	}

	res, err := s.agg.Aggregate(r.Context(), input, rank.Options{Strict: strict})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			loggerFromContext(r.Context(), s.logger).Debug("client went away")
			return
		}
		s.fail(w, r, deperrors.Wrap(deperrors.ErrCodeInternal, err, "aggregate"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// strictParam resolves the mode: the query parameter wins over the body,
// which wins over the server default.
func (s *Server) strictParam(r *http.Request, fromBody *bool) (bool, error) {
	if v := r.URL.Query().Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, deperrors.New(deperrors.ErrCodeInvalidInput, "invalid strict value %q", v)
		}
		return b, nil
	}
	if fromBody != nil {
		return *fromBody, nil
	}
	return s.strict, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := deperrors.HTTPStatus(err)
	code := string(deperrors.GetCode(err))
	if code == "" {
		code = string(deperrors.ErrCodeInternal)
	}

	msg := deperrors.UserMessage(err)
	logger := loggerFromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}
