package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// createSessionRequest carries the consent flag. The capture page collects
// consent before it creates a session and posts no body, so an absent flag
// counts as given; an explicit false is refused.
type createSessionRequest struct {
	ConsentGiven *bool `json:"consentGiven"`
}

func (r createSessionRequest) consent() bool {
	return r.ConsentGiven == nil || *r.ConsentGiven
}

type submitAnswerRequest struct {
	QuestionID    string   `json:"questionId" binding:"required"`
	AnswerText    string   `json:"answerText" binding:"required,notblank"`
	FaceScore     *float64 `json:"faceScore" binding:"omitempty,gte=0,lte=10"`
	VoiceScore    *float64 `json:"voiceScore" binding:"omitempty,gte=0,lte=10"`
	NlpScore      *float64 `json:"nlpScore" binding:"omitempty,gte=0,lte=10"`
	ReactionDelay *float64 `json:"reactionDelay" binding:"omitempty,gte=0"`
}

// analyzeRequest mirrors what the capture page posts while a participant is
// answering. With both sessionId and questionId the answer is also stored.
type analyzeRequest struct {
	SessionID       string   `json:"sessionId"`
	QuestionID      string   `json:"questionId"`
	QuestionText    string   `json:"questionText" binding:"required,notblank"`
	AnswerText      string   `json:"answerText" binding:"required,notblank"`
	FaceStressScore *float64 `json:"faceStressScore" binding:"omitempty,gte=0,lte=10"`
}

func (r analyzeRequest) storesAnswer() bool {
	return r.SessionID != "" && r.QuestionID != ""
}

// analyzeStoresAnswer reports whether an /nlp/analyze body belongs to a
// session. Those requests have side effects and bypass the response cache.
func analyzeStoresAnswer(body []byte) bool {
	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return false
	}
	return req.storesAnswer()
}

type consistencyRequest struct {
	QuestionText string   `json:"questionText"`
	Answers      []string `json:"answers" binding:"required,min=1,dive,notblank"`
}

type emotionRequest struct {
	AnswerText      string   `json:"answerText" binding:"required,notblank"`
	FaceStressScore *float64 `json:"faceStressScore" binding:"required,gte=0,lte=10"`
}

var registerOnce sync.Once

// registerValidators makes validation errors name JSON fields and adds the
// notblank rule to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

// bindJSON decodes and validates the body. allowEmpty treats a missing body
// as the zero request.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fieldPath(fe)] = describe(fe)
		}
		return apperrors.NewValidationErrorWithMap(fields)
	}

	return apperrors.NewValidationError("invalid request body", err.Error())
}

// fieldPath drops the struct name prefix: "answers[1]" instead of
// "consistencyRequest.answers[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
