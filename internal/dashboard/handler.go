// Package dashboard serves the review explorer: an HTML page with upload,
// single-text classification, filters and charts, plus a JSON API over the
// same cached corpus and model.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/dataset"
	"review-sentiment/internal/middleware"
	"review-sentiment/internal/models"
	"review-sentiment/internal/repository"
	"review-sentiment/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("").Funcs(template.FuncMap{
		"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
		"prob":    func(p float64) string { return fmt.Sprintf("%.3f", p) },
	}).ParseFS(templateFS, "templates/*.html"),
)

// PreviewRows is the number of uploaded rows shown before ingestion.
const PreviewRows = 10

// Ingester stores an uploaded CSV.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, source string) (int, error)
}

// StatsSource summarizes the stored corpus.
type StatsSource interface {
	GetStats(ctx context.Context) (*repository.Stats, error)
}

// Options bounds what the dashboard accepts and renders.
type Options struct {
	MaxUploadBytes int64
	TableLimit     int
	UploadTTL      time.Duration // how long a previewed upload stays ingestible
}

// Handler handles dashboard and API requests
type Handler struct {
	cache    *Cache
	ingester Ingester
	stats    StatsSource
	uploads  *uploadStore
	opts     Options
	logger   *zap.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(cache *Cache, ingester Ingester, stats StatsSource, opts Options, logger *zap.Logger) *Handler {
	if opts.TableLimit <= 0 {
		opts.TableLimit = 500
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 15 * time.Minute
	}
	return &Handler{
		cache:    cache,
		ingester: ingester,
		stats:    stats,
		uploads:  newUploadStore(opts.UploadTTL),
		opts:     opts,
		logger:   logger,
	}
}

// RegisterRoutes registers the page, the JSON API and the operational endpoints
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", h.Index)
	r.POST("/upload/preview", h.UploadPreview)
	r.POST("/ingest", h.Ingest)
	r.POST("/classify", h.Classify)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS())
	{
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		api.POST("/predict", h.Predict)
		api.GET("/reviews", h.GetReviews)
		api.GET("/stats", h.GetStats)

		api.GET("/export/csv", h.ExportCSV)
		api.GET("/export/json", h.ExportJSON)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// flash is a one-off message shown at the top of the page.
type flash struct {
	Kind    string // success, error, warning, info
	Message string
}

type previewData struct {
	Token    string // stages the previewed bytes for /ingest
	FileName string
	Columns  []string
	Rows     [][]string
	Total    int
}

type tableRow struct {
	ReviewID  string
	Date      string
	Product   string
	Stars     string
	Text      string
	Predicted string
	ProbPos   float64
}

type pageData struct {
	Flashes []flash

	ModelLoaded bool
	ModelID     string

	ClassifyText string
	Classified   *models.Prediction

	Preview *previewData

	Empty     bool
	Products  []string
	Product   string
	From      string
	To        string
	Query     string
	MinDate   string
	MaxDate   string
	Matches   int
	Rows      []tableRow
	Truncated bool
	DistChart *Chart
	HistChart *Chart
	ShowPreds bool
}

// view is the filtered corpus with predictions aligned row by row. preds is
// nil when no model is loaded.
type view struct {
	filter  Filter // f after Resolve
	reviews []models.Review
	preds   []models.Prediction
}

func (h *Handler) buildView(ctx context.Context, f Filter) (corpus []models.Review, v view, model *classifier.Pipeline, err error) {
	corpus, err = h.cache.Corpus(ctx)
	if err != nil {
		return nil, view{}, nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	model, err = h.cache.Model()
	if err != nil {
		return nil, view{}, nil, fmt.Errorf("failed to load model: %w", err)
	}

	v.filter = f.Resolve(corpus)
	v.reviews = v.filter.Apply(corpus)
	if model != nil && len(v.reviews) > 0 {
		texts := make([]string, len(v.reviews))
		for i := range v.reviews {
			texts[i] = v.reviews[i].Text
		}
		v.preds = service.Classify(model, texts)
	}
	return corpus, v, model, nil
}

// render fills in the explorer section for f and writes the page.
func (h *Handler) render(c *gin.Context, status int, data pageData, f Filter) {
	corpus, v, model, err := h.buildView(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("Failed to build dashboard view", zap.Error(err))
		data.Flashes = append(data.Flashes, flash{Kind: "error", Message: err.Error()})
		c.HTML(http.StatusInternalServerError, "index.html", data)
		return
	}

	data.ModelLoaded = model != nil
	if model != nil {
		data.ModelID = model.ID
	}
	data.Empty = len(corpus) == 0
	data.Products = Products(corpus)
	if lo, hi := DateBounds(corpus); lo != nil {
		data.MinDate = lo.Format(models.DateLayout)
		data.MaxDate = hi.Format(models.DateLayout)
	}
	if data.Product == "" {
		data.Product = AllProducts
	}
	if f.CorpusRange && data.From == "" && data.To == "" && v.filter.From != nil {
		data.From = v.filter.From.Format(models.DateLayout)
		data.To = v.filter.To.Format(models.DateLayout)
	}
	data.Matches = len(v.reviews)
	data.ShowPreds = v.preds != nil

	if v.preds != nil {
		dist := DistributionChart(Distribution(v.preds))
		hist := HistogramChart(Histogram(v.preds, HistogramBins))
		data.DistChart = &dist
		data.HistChart = &hist
	}

	limit := len(v.reviews)
	if limit > h.opts.TableLimit {
		limit = h.opts.TableLimit
		data.Truncated = true
	}
	data.Rows = make([]tableRow, 0, limit)
	for i := 0; i < limit; i++ {
		r := &v.reviews[i]
		row := tableRow{
			ReviewID: r.ReviewID,
			Date:     r.DateString(),
			Product:  r.ProductName(),
			Text:     r.Text,
		}
		if r.Stars != nil {
			row.Stars = strconv.Itoa(*r.Stars)
		}
		if v.preds != nil {
			row.Predicted = string(v.preds[i].Predicted)
			row.ProbPos = v.preds[i].ProbPos
		}
		data.Rows = append(data.Rows, row)
	}

	c.HTML(status, "index.html", data)
}

// Index renders the dashboard page with filters from the query string. With
// no from/to parameters at all, the date range starts at the corpus bounds;
// submitting the inputs empty clears it.
func (h *Handler) Index(c *gin.Context) {
	from, hasFrom := c.GetQuery("from")
	to, hasTo := c.GetQuery("to")
	data := pageData{
		Product: c.Query("product"),
		From:    from,
		To:      to,
		Query:   c.Query("q"),
	}
	f, err := ParseFilter(data.Product, data.From, data.To, data.Query)
	if err != nil {
		data.Flashes = append(data.Flashes, flash{Kind: "warning", Message: err.Error() + "; date filter ignored"})
		f.From, f.To = nil, nil
	}
	f.CorpusRange = !hasFrom && !hasTo
	h.render(c, http.StatusOK, data, f)
}

func (h *Handler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
}

func (h *Handler) openUpload(c *gin.Context) (io.ReadCloser, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("no CSV file uploaded: %w", err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	return file, header.Filename, nil
}

// UploadPreview shows the first rows of an uploaded CSV and stages it for
// Ingest without storing it
func (h *Handler) UploadPreview(c *gin.Context) {
	h.limitBody(c)
	file, name, err := h.openUpload(c)
	if err != nil {
		h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: err.Error()}}}, Filter{CorpusRange: true})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: "failed to read upload: " + err.Error()}}}, Filter{CorpusRange: true})
		return
	}

	rows, err := dataset.ReadRows(bytes.NewReader(data))
	if err != nil {
		h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: err.Error()}}}, Filter{CorpusRange: true})
		return
	}

	preview := &previewData{
		Token:    h.uploads.Put(name, data),
		FileName: name,
		Columns:  dataset.Columns,
		Total:    len(rows),
	}
	for i, row := range rows {
		if i == PreviewRows {
			break
		}
		preview.Rows = append(preview.Rows, []string{row.ReviewID, row.Date, row.Product, row.Stars, row.Text, row.Label})
	}
	h.render(c, http.StatusOK, pageData{Preview: preview}, Filter{CorpusRange: true})
}

// Ingest stores an uploaded CSV and invalidates the cache. The CSV is either
// a fresh file or one staged by UploadPreview, named by upload_token.
func (h *Handler) Ingest(c *gin.Context) {
	h.limitBody(c)

	var (
		src  io.Reader
		name string
	)
	if token := c.PostForm("upload_token"); token != "" {
		staged, ok := h.uploads.Take(token)
		if !ok {
			h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: "Previewed upload expired; choose the file again."}}}, Filter{CorpusRange: true})
			return
		}
		src, name = bytes.NewReader(staged.data), staged.name
	} else {
		file, fileName, err := h.openUpload(c)
		if err != nil {
			h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: err.Error()}}}, Filter{CorpusRange: true})
			return
		}
		defer file.Close()
		src, name = file, fileName
	}

	n, err := h.ingester.Ingest(c.Request.Context(), src, name)
	if err != nil {
		h.logger.Warn("Upload ingestion failed", zap.String("file", name), zap.Error(err))
		h.render(c, http.StatusBadRequest, pageData{Flashes: []flash{{Kind: "error", Message: "Ingestion failed: " + err.Error()}}}, Filter{CorpusRange: true})
		return
	}

	h.cache.Invalidate()
	h.render(c, http.StatusOK, pageData{Flashes: []flash{{Kind: "success", Message: fmt.Sprintf("Ingested %d rows.", n)}}}, Filter{CorpusRange: true})
}

// Classify scores a single pasted review
func (h *Handler) Classify(c *gin.Context) {
	text := c.PostForm("text")
	data := pageData{ClassifyText: text}

	model, err := h.cache.Model()
	if err != nil {
		h.logger.Error("Failed to load model", zap.Error(err))
		data.Flashes = append(data.Flashes, flash{Kind: "error", Message: err.Error()})
		h.render(c, http.StatusInternalServerError, data, Filter{CorpusRange: true})
		return
	}
	if model == nil {
		data.Flashes = append(data.Flashes, flash{Kind: "warning", Message: modelMissingMessage})
		h.render(c, http.StatusOK, data, Filter{CorpusRange: true})
		return
	}

	pred := service.Classify(model, []string{text})[0]
	data.Classified = &pred
	h.render(c, http.StatusOK, data, Filter{CorpusRange: true})
}

const modelMissingMessage = "Model not trained. Ingest labeled data and run training first."

// Predict classifies a batch of texts over JSON
func (h *Handler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model, err := h.cache.Model()
	if err != nil {
		h.logger.Error("Failed to load model", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model load failed"})
		return
	}
	if model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrModelNotTrained.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": service.Classify(model, req.Texts),
		"model_id":    model.ID,
	})
}

type reviewResponse struct {
	models.Review
	Predicted string   `json:"predicted,omitempty"`
	ProbPos   *float64 `json:"prob_pos,omitempty"`
}

func (h *Handler) apiView(c *gin.Context) (view, bool) {
	f, err := ParseFilter(c.Query("product"), c.Query("from"), c.Query("to"), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return view{}, false
	}
	_, v, _, err := h.buildView(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("Failed to build view", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reviews"})
		return view{}, false
	}
	return v, true
}

// GetReviews returns the filtered reviews with predictions when a model exists
func (h *Handler) GetReviews(c *gin.Context) {
	v, ok := h.apiView(c)
	if !ok {
		return
	}

	limit := h.opts.TableLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	if limit > len(v.reviews) {
		limit = len(v.reviews)
	}

	out := make([]reviewResponse, limit)
	for i := 0; i < limit; i++ {
		out[i] = reviewResponse{Review: v.reviews[i]}
		if v.preds != nil {
			p := v.preds[i].ProbPos
			out[i].Predicted = string(v.preds[i].Predicted)
			out[i].ProbPos = &p
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(v.reviews),
		"reviews": out,
	})
}

// GetStats returns corpus statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	resp := gin.H{"corpus": stats, "model_loaded": false}
	if model, err := h.cache.Model(); err == nil && model != nil {
		resp["model_loaded"] = true
		resp["model_id"] = model.ID
		resp["features"] = model.Vectorizer.NumFeatures()
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV exports the filtered view to CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	v, ok := h.apiView(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=reviews.csv")

	writer := csv.NewWriter(c.Writer)

	header := append([]string(nil), dataset.Columns...)
	if v.preds != nil {
		header = append(header, "predicted", "prob_pos")
	}
	if err := writer.Write(header); err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		return
	}

	for i := range v.reviews {
		r := &v.reviews[i]
		stars, label := "", ""
		if r.Stars != nil {
			stars = strconv.Itoa(*r.Stars)
		}
		if r.Label != nil {
			label = *r.Label
		}
		record := []string{r.ReviewID, r.DateString(), r.ProductName(), stars, r.Text, label}
		if v.preds != nil {
			record = append(record, string(v.preds[i].Predicted), strconv.FormatFloat(v.preds[i].ProbPos, 'f', 6, 64))
		}
		if err := writer.Write(record); err != nil {
			h.logger.Error("Failed to export CSV", zap.Int("row", i), zap.Error(err))
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
	}
}

// ExportJSON exports the filtered view to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	v, ok := h.apiView(c)
	if !ok {
		return
	}

	out := make([]reviewResponse, len(v.reviews))
	for i := range v.reviews {
		out[i] = reviewResponse{Review: v.reviews[i]}
		if v.preds != nil {
			p := v.preds[i].ProbPos
			out[i].Predicted = string(v.preds[i].Predicted)
			out[i].ProbPos = &p
		}
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=reviews.json")

	encoder := json.NewEncoder(c.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	model, err := h.cache.Model()
	status := "healthy"
	if err != nil && !errors.Is(err, service.ErrModelNotTrained) {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"service":      "review-sentiment",
		"model_loaded": model != nil,
	})
}
