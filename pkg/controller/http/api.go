package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/usecase"
	"github.com/secmon-lab/folio/pkg/utils/errutil"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/secmon-lab/folio/pkg/utils/safe"
)

const maxChatBodyBytes = 64 << 10

type chatRequest struct {
	Message string `json:"message"`
}

type actionResponse struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

type chatResponse struct {
	Response string          `json:"response"`
	Action   *actionResponse `json:"action"`
}

type projectResponse struct {
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	ShortSummary string   `json:"short_summary"`
	LongSummary  string   `json:"long_summary,omitempty"`
	Tags         []string `json:"tags"`
	GithubURL    string   `json:"github_url,omitempty"`
	DemoURL      string   `json:"demo_url,omitempty"`
	HeroImage    string   `json:"hero_image,omitempty"`
	DisplayOrder int      `json:"display_order"`
	ProjectType  string   `json:"project_type"`
}

type blogSummaryResponse struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	PublishedAt string   `json:"published_at,omitempty"`
	Tags        []string `json:"tags"`
	HeroImage   string   `json:"hero_image,omitempty"`
	MediumLink  string   `json:"medium_link,omitempty"`
}

type blogDetailResponse struct {
	blogSummaryResponse
	ContentFormat string `json:"content_format"`
	Content       string `json:"content"`
}

type indexHealth struct {
	Available bool       `json:"available"`
	Units     int        `json:"units"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Index  *indexHealth `json:"index,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func chatHandler(uc ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid chat request body"), http.StatusBadRequest)
			return
		}

		result, err := uc.Chat(r.Context(), req.Message)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrEmptyInput):
				errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			default:
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			}
			return
		}

		resp := chatResponse{Response: result.Response}
		if result.Action != nil {
			resp.Action = &actionResponse{
				Type:    result.Action.Type,
				Payload: result.Action.Payload.String(),
			}
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		Slug:         p.Slug,
		Name:         p.Name,
		ShortSummary: p.ShortSummary,
		LongSummary:  p.LongSummary,
		Tags:         model.NormalizeTags(p.Tags),
		GithubURL:    p.GithubURL,
		DemoURL:      p.DemoURL,
		HeroImage:    p.HeroImage,
		DisplayOrder: p.DisplayOrder,
		ProjectType:  p.Type(),
	}
}

func toBlogSummaryResponse(b *model.Blog) blogSummaryResponse {
	return blogSummaryResponse{
		Slug:        b.Slug,
		Title:       b.Title,
		Excerpt:     b.Excerpt,
		PublishedAt: b.PublishedAt,
		Tags:        model.NormalizeTags(b.Tags),
		HeroImage:   b.HeroImage,
		MediumLink:  b.MediumLink,
	}
}

func projectsHandler(uc ContentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := uc.ListProjects(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := make([]projectResponse, len(projects))
		for i, p := range projects {
			resp[i] = toProjectResponse(p)
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func blogsHandler(uc ContentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogs, err := uc.ListBlogs(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := make([]blogSummaryResponse, len(blogs))
		for i, b := range blogs {
			resp[i] = toBlogSummaryResponse(b)
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func blogHandler(uc ContentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		blog, err := uc.GetBlog(r.Context(), slug)
		if err != nil {
			if errors.Is(err, usecase.ErrBlogNotFound) {
				errutil.HandleHTTP(r.Context(), w, goerr.New("Blog not found"), http.StatusNotFound)
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, blogDetailResponse{
			blogSummaryResponse: toBlogSummaryResponse(blog),
			ContentFormat:       blog.Format(),
			Content:             blog.Content,
		})
	}
}

type rebuildResponse struct {
	Status string `json:"status"`
}

// rebuildHandler requests a background rebuild and returns 202. A request
// made while a rebuild is running is merged into one follow-up pass.
func rebuildHandler(uc IndexUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started, err := uc.RequestRebuild(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		status := "started"
		if !started {
			status = "pending"
		}
		logging.From(r.Context()).Info("Index rebuild requested", "status", status)
		writeJSON(w, r, http.StatusAccepted, rebuildResponse{Status: status})
	}
}

func healthHandler(stats IndexStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if stats != nil {
			s := stats.Stats()
			resp.Index = &indexHealth{
				Available: s.Available,
				Units:     s.Units,
			}
			if s.Available {
				builtAt := s.BuiltAt
				resp.Index.BuiltAt = &builtAt
			}
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}
