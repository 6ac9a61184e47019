package api

import (
	"net/http"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/behaviorlab/inconsistency-meter/internal/questions"
	"github.com/behaviorlab/inconsistency-meter/internal/session"
	"github.com/gin-gonic/gin"
)

// analyzeResponse flattens the text analysis so the capture page can read
// nlpScore at the top level.
type analyzeResponse struct {
	analysis.NlpAnalysisResult
	EmotionAnalysis *analysis.EmotionConsistencyResult `json:"emotionAnalysis,omitempty"`
	AnswerID        string                             `json:"answerId,omitempty"`
}

// questionTemplates godoc
// @Summary The fixed question flow
// @Tags questions
// @Produce json
// @Success 200 {array} questions.Template
// @Router /questions/templates [get]
func (s *Server) questionTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": questions.Categories(),
		"templates":  questions.Templates(),
	})
}

// createSession godoc
// @Summary Start a session
// @Description consentGiven defaults to true when omitted; false is refused
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Consent"
// @Success 201 {object} database.Session
// @Failure 400 {object} map[string]interface{}
// @Router /sessions [post]
func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := bindJSON(c, &req, true); err != nil {
		s.fail(c, err)
		return
	}

	sess, err := s.deps.Sessions.Create(c.Request.Context(), req.consent())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// getSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} database.Session
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.deps.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// deleteSession godoc
// @Summary Delete every stored answer, question and score of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")

	var err error
	if s.deps.Privacy != nil {
		err = s.deps.Privacy.DeleteSessionData(c.Request.Context(), id)
	} else {
		err = s.deps.Sessions.Delete(c.Request.Context(), id, "participant_request")
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "session data deleted",
		"sessionId": id,
	})
}

// bootstrapQuestions godoc
// @Summary Attach the question flow to a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {array} database.Question
// @Failure 409 {object} map[string]interface{}
// @Router /sessions/{id}/bootstrap-questions [post]
func (s *Server) bootstrapQuestions(c *gin.Context) {
	qs, err := s.deps.Sessions.BootstrapQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, qs)
}

// listQuestions godoc
// @Summary List the questions of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} database.Question
// @Router /sessions/{id}/questions [get]
func (s *Server) listQuestions(c *gin.Context) {
	qs, err := s.deps.Sessions.ListQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

// submitAnswer godoc
// @Summary Store an answer with its captured signals
// @Description Signals are optional. nlpScore is derived from the text when omitted.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body submitAnswerRequest true "Answer"
// @Success 201 {object} session.SubmitAnswerResult
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /sessions/{id}/answers [post]
func (s *Server) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Security.ValidateText("answerText", req.AnswerText); err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.deps.Sessions.SubmitAnswer(c.Request.Context(), session.SubmitAnswerRequest{
		SessionID:     c.Param("id"),
		QuestionID:    req.QuestionID,
		AnswerText:    s.deps.Security.SanitizeText(req.AnswerText),
		FaceScore:     req.FaceScore,
		VoiceScore:    req.VoiceScore,
		NlpScore:      req.NlpScore,
		ReactionDelay: req.ReactionDelay,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// calculateScore godoc
// @Summary Score a session and mark it completed
// @Description The score is a heuristic inconsistency indicator, not evidence of deception.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} analysis.SessionScoreResult
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id}/calculate-score [post]
func (s *Server) calculateScore(c *gin.Context) {
	res, err := s.deps.Sessions.CalculateScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// getScore godoc
// @Summary Get the last calculated score
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} analysis.SessionScoreResult
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id}/score [get]
func (s *Server) getScore(c *gin.Context) {
	res, err := s.deps.Sessions.GetScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// questionConsistency godoc
// @Summary Compare every answer given to one question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param questionId path string true "Question ID"
// @Success 200 {object} analysis.ConsistencyAnalysisResult
// @Router /sessions/{id}/questions/{questionId}/consistency [get]
func (s *Server) questionConsistency(c *gin.Context) {
	res, err := s.deps.Sessions.QuestionConsistency(c.Request.Context(), c.Param("id"), c.Param("questionId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// analyze godoc
// @Summary Text analysis of one answer
// @Description emotionAnalysis is present when faceStressScore is sent. With sessionId and questionId the answer is stored, faceStressScore as its face signal.
// @Tags nlp
// @Accept json
// @Produce json
// @Param request body analyzeRequest true "Question and answer"
// @Success 200 {object} analyzeResponse
// @Failure 400 {object} map[string]interface{}
// @Router /nlp/analyze [post]
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.validateTexts(req.QuestionText, req.AnswerText); err != nil {
		s.fail(c, err)
		return
	}

	if req.storesAnswer() {
		res, err := s.deps.Sessions.SubmitAnswer(c.Request.Context(), session.SubmitAnswerRequest{
			SessionID:  req.SessionID,
			QuestionID: req.QuestionID,
			AnswerText: s.deps.Security.SanitizeText(req.AnswerText),
			FaceScore:  req.FaceStressScore,
		})
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, analyzeResponse{
			NlpAnalysisResult: res.Evaluation.NLP,
			EmotionAnalysis:   res.Evaluation.Emotion,
			AnswerID:          res.Answer.ID,
		})
		return
	}

	eval := s.deps.Sessions.AnalyzeAnswer(c.Request.Context(), session.AnalyzeRequest{
		Question:   s.deps.Security.SanitizeText(req.QuestionText),
		Answer:     s.deps.Security.SanitizeText(req.AnswerText),
		FaceStress: req.FaceStressScore,
	})
	c.JSON(http.StatusOK, analyzeResponse{NlpAnalysisResult: eval.NLP, EmotionAnalysis: eval.Emotion})
}

// consistency godoc
// @Summary Cross-answer consistency of several answers to one question
// @Tags nlp
// @Accept json
// @Produce json
// @Param request body consistencyRequest true "Answers"
// @Success 200 {object} analysis.ConsistencyAnalysisResult
// @Failure 400 {object} map[string]interface{}
// @Router /nlp/consistency [post]
func (s *Server) consistency(c *gin.Context) {
	var req consistencyRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.fail(c, err)
		return
	}

	answers := make([]string, len(req.Answers))
	for i, a := range req.Answers {
		if err := s.deps.Security.ValidateText("answers", a); err != nil {
			s.fail(c, err)
			return
		}
		answers[i] = s.deps.Security.SanitizeText(a)
	}

	c.JSON(http.StatusOK, s.deps.Engine.Text().AnalyzeAcrossAnswers(req.QuestionText, answers))
}

// emotion godoc
// @Summary Agreement between worded emotion and face stress
// @Tags nlp
// @Accept json
// @Produce json
// @Param request body emotionRequest true "Answer and face stress"
// @Success 200 {object} analysis.EmotionConsistencyResult
// @Failure 400 {object} map[string]interface{}
// @Router /nlp/emotion [post]
func (s *Server) emotion(c *gin.Context) {
	var req emotionRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Security.ValidateText("answerText", req.AnswerText); err != nil {
		s.fail(c, err)
		return
	}

	answer := s.deps.Security.SanitizeText(req.AnswerText)
	c.JSON(http.StatusOK, s.deps.Engine.Text().AnalyzeEmotionContent(answer, *req.FaceStressScore))
}

func (s *Server) validateTexts(question, answer string) error {
	if err := s.deps.Security.ValidateText("questionText", question); err != nil {
		return err
	}
	return s.deps.Security.ValidateText("answerText", answer)
}
