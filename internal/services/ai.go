package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/integrations/gemini"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var ErrAINotConfigured = errors.New("no gemini api key is configured")

const descriptionSystemPrompt = `You write task descriptions for a software team's tracker.
Reply with the description only: a short summary paragraph followed by a bulleted list of
acceptance criteria. Use plain Markdown and no headings.`

type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type taskReader interface {
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
}

type projectReader interface {
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
}

type AIService struct {
	tasks      taskReader
	projects   projectReader
	creds      credentialStore
	generator  func(apiKey string) TextGenerator
	defaultKey string
}

func NewAIService(tasks taskReader, projects projectReader, creds credentialStore, cfg config.IntegrationsConfig) *AIService {
	return &AIService{
		tasks:    tasks,
		projects: projects,
		creds:    creds,
		generator: func(apiKey string) TextGenerator {
			return gemini.New(cfg.GeminiAPIURL, cfg.GeminiModel, apiKey, cfg.HTTPTimeout)
		},
		defaultKey: cfg.GeminiAPIKey,
	}
}

// apiKey prefers the user's own gemini integration over the server-wide key.
func (s *AIService) apiKey(ctx context.Context, userID uuid.UUID) (string, error) {
	creds, err := s.creds.Credentials(ctx, userID, models.IntegrationGemini)
	if err == nil {
		return creds.Secret, nil
	}
	if !errors.Is(err, ErrIntegrationNotFound) {
		return "", err
	}
	if s.defaultKey == "" {
		return "", ErrAINotConfigured
	}
	return s.defaultKey, nil
}

func descriptionPrompt(task *models.Task, projectName, hint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", projectName)
	fmt.Fprintf(&b, "Task title: %s\n", task.Title)
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		fmt.Fprintf(&b, "Current description:\n%s\n", strings.TrimSpace(*task.Description))
	}
	if len(task.Tags) > 0 {
		names := make([]string, 0, len(task.Tags))
		for _, t := range task.Tags {
			names = append(names, t.Name)
		}
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", hint)
	}
	b.WriteString("Write the description.")
	return b.String()
}

// TaskDescription drafts a description for a task the user can see. Nothing is stored.
func (s *AIService) TaskDescription(ctx context.Context, taskID, userID uuid.UUID, hint string) (string, error) {
	task, err := s.tasks.Get(ctx, taskID, userID)
	if err != nil {
		return "", err
	}
	project, err := s.projects.Get(ctx, task.ProjectID, userID)
	if err != nil {
		return "", err
	}

	key, err := s.apiKey(ctx, userID)
	if err != nil {
		return "", err
	}

	text, err := s.generator(key).Generate(ctx, descriptionSystemPrompt, descriptionPrompt(task, project.Name, hint))
	if err != nil {
		return "", external(err)
	}
	return strings.TrimSpace(text), nil
}
