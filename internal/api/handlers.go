package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "score-handler/internal/common/errors"
	"score-handler/internal/common/validation"
	"score-handler/internal/service"
)

const maxBodyBytes = 1 << 20

// errorBody carries the error and, for partial successes, what was computed
// before the failure.
type errorBody struct {
	Error     *apperrors.StandardError `json:"error"`
	Result    interface{}              `json:"result,omitempty"`
	RequestID string                   `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "score-handler"})
}

func (s *Server) handleReady(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, rc := range s.checks {
		if err := rc.Check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[rc.Name] = err.Error()
			continue
		}
		checks[rc.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"riskModel": s.svc.ModelStatus(),
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": fmt.Sprintf("Endpoint not found: %s %s", c.Request.Method, c.Request.URL.Path),
	})
}

func (s *Server) handleSurvey(c *gin.Context) {
	payload, ok := s.readBody(c, validation.SurveySchema)
	if !ok {
		return
	}
	sub, err := service.ParseSurvey(payload)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}

	res, err := s.svc.ScoreSurvey(c.Request.Context(), sub)
	s.respond(c, res, err)
}

func (s *Server) handleClusteredSurvey(c *gin.Context) {
	payload, ok := s.readBody(c, validation.SurveySchema)
	if !ok {
		return
	}
	sub, err := service.ParseSurvey(payload)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}

	res, err := s.svc.ScoreClusteredSurvey(c.Request.Context(), sub)
	s.respond(c, res, err)
}

func (s *Server) handleComputePlan(c *gin.Context) {
	payload, ok := s.readBody(c, validation.PlanSchema)
	if !ok {
		return
	}
	var req service.PlanRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeError(c, apperrors.NewValidationError(err.Error()), nil)
		return
	}

	res, err := s.svc.ComputeRepaymentPlan(c.Request.Context(), req)
	s.respond(c, res, err)
}

func (s *Server) handleGetPlan(c *gin.Context) {
	res, err := s.svc.GetUserRepaymentPlan(c.Request.Context(), c.Param("userId"))
	s.respond(c, res, err)
}

func (s *Server) handleListNonDefaulters(c *gin.Context) {
	members, err := s.svc.ListNonDefaulters(c.Request.Context())
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(members), "data": members})
}

func (s *Server) handleRegisterNonDefaulter(c *gin.Context) {
	req, ok := s.readNonDefaulter(c)
	if !ok {
		return
	}
	profile, err := s.svc.RegisterNonDefaulter(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (s *Server) handleReplaceNonDefaulter(c *gin.Context) {
	req, ok := s.readNonDefaulter(c)
	if !ok {
		return
	}
	if req.UserID != "" && string(req.UserID) != c.Param("userId") {
		s.writeError(c, apperrors.NewValidationError("userId in body does not match the path"), nil)
		return
	}
	req.UserID = service.UserID(c.Param("userId"))

	profile, err := s.svc.ReplaceNonDefaulter(c.Request.Context(), req)
	s.respond(c, profile, err)
}

func (s *Server) handleRebuildModel(c *gin.Context) {
	status, err := s.svc.RebuildRiskModel(c.Request.Context())
	s.respond(c, status, err)
}

func (s *Server) handleModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.ModelStatus())
}

// readNonDefaulter accepts a body without userId on PUT, where the path
// carries it.
func (s *Server) readNonDefaulter(c *gin.Context) (service.NonDefaulterRequest, bool) {
	var req service.NonDefaulterRequest

	payload, ok := s.readBody(c, nil)
	if !ok {
		return req, false
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.writeError(c, apperrors.NewValidationError("request body must be a JSON object"), nil)
		return req, false
	}
	if _, has := doc["userId"]; !has && c.Param("userId") != "" {
		doc["userId"] = c.Param("userId")
	}
	if result := validation.NonDefaulterSchema.ValidateObject(doc); !result.Valid {
		s.writeError(c, validationFailure(result), nil)
		return req, false
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeError(c, apperrors.NewValidationError(err.Error()), nil)
		return req, false
	}
	return req, true
}

// readBody reads the request body and checks it against schema when given.
func (s *Server) readBody(c *gin.Context, schema *validation.Schema) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		s.writeError(c, apperrors.NewValidationError("could not read request body"), nil)
		return nil, false
	}
	if !json.Valid(payload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body"})
		return nil, false
	}
	if schema != nil {
		if result := schema.Validate(payload); !result.Valid {
			s.writeError(c, validationFailure(result), nil)
			return nil, false
		}
	}
	return payload, true
}

func validationFailure(result *validation.ValidationResult) *apperrors.StandardError {
	return apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; ")).
		WithMetadata("fields", result.Errors)
}

// respond writes res on success. On failure the computed part of a partial
// success is sent next to the error.
func (s *Server) respond(c *gin.Context, res interface{}, err error) {
	if err != nil {
		s.writeError(c, err, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) writeError(c *gin.Context, err error, partial interface{}) {
	stdErr := apperrors.Normalize(err)
	body := errorBody{Error: stdErr, RequestID: c.GetString(ctxRequestID)}
	if !isNil(partial) {
		body.Result = partial
	}
	c.JSON(apperrors.HTTPStatus(stdErr.Code), body)
}

// isNil also catches typed nil pointers stored in an interface.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
