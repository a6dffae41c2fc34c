package labhttp

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"apilab/internal/apperr"
	"apilab/internal/board"
	"apilab/internal/catalog"
	"apilab/internal/chart"
	"apilab/internal/gateway/provider"
	"apilab/internal/logger"
	"apilab/internal/report"
	"apilab/internal/store/journal"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	board     Board
	runs      RunLister
	maxUpload int64
}

func (h *handlers) register(group *gin.RouterGroup) {
	group.GET("/cards", h.listCards)
	group.GET("/cards/:id", h.getCard)
	group.PUT("/cards/:id/input", h.setInput)
	group.POST("/cards/:id/image", h.uploadImage)
	group.POST("/cards/:id/run", h.runCard)
	group.DELETE("/cards/:id", h.removeCard)
	group.GET("/market/:id/chart", h.marketChart)
	group.GET("/runs", h.listRuns)
}

// unitView is the JSON shape of one card on the board.
type unitView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Group       string       `json:"group"`
	Kind        catalog.Kind `json:"kind"`
	InputType   string       `json:"input_type"`
	APIName     string       `json:"api_name,omitempty"`
	Input       string       `json:"input"`
	State       board.State  `json:"state"`
	Health      *healthView  `json:"health,omitempty"`
}

func viewOf(u board.Unit) unitView {
	return unitView{
		ID:          u.Card.ID,
		Name:        u.Card.Name,
		Description: u.Card.Description,
		Group:       u.Card.Group,
		Kind:        u.Card.Kind,
		InputType:   u.Card.InputType,
		APIName:     u.Card.APIName,
		Input:       u.Input,
		State:       u.State,
		Health:      healthOf(u.State.Result),
	}
}

type pageGroup struct {
	Title string
	Units []board.Unit
}

func (h *handlers) index(c *gin.Context) {
	lab := pageGroup{Title: "Test Lab"}
	tools := pageGroup{Title: "Tools"}
	for _, u := range h.board.List() {
		if u.Card.Group == catalog.GroupTools {
			tools.Units = append(tools.Units, u)
		} else {
			lab.Units = append(lab.Units, u)
		}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Groups": []pageGroup{lab, tools},
	})
}

func (h *handlers) listCards(c *gin.Context) {
	units := h.board.List()
	out := make([]unitView, 0, len(units))
	for _, u := range units {
		out = append(out, viewOf(u))
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

func (h *handlers) getCard(c *gin.Context) {
	u, err := h.board.Snapshot(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(u))
}

type inputRequest struct {
	Value *string `json:"value"`
}

func (h *handlers) setInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"value\": \"...\"}"})
		return
	}
	h.storeInput(c, c.Param("id"), *req.Value)
}

func (h *handlers) storeInput(c *gin.Context, id, value string) {
	if err := h.board.SetInput(id, value); err != nil {
		writeError(c, err)
		return
	}
	u, err := h.board.Snapshot(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(u))
}

// uploadImage turns a multipart file into a data URI and stores it as the
// card input.
func (h *handlers) uploadImage(c *gin.Context) {
	id := c.Param("id")
	u, err := h.board.Snapshot(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !u.Card.IsImage() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card takes text input, not an image"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", h.maxUpload)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if int64(len(data)) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", h.maxUpload)})
		return
	}
	mime := uploadMIME(fh.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mime, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not an image: " + mime})
		return
	}
	h.storeInput(c, id, provider.InlineData{MIMEType: mime, Data: data}.DataURI())
}

// uploadMIME prefers the declared type and sniffs the content otherwise.
func uploadMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return strings.ToLower(declared)
	}
	return mimetype.Detect(data).String()
}

func (h *handlers) runCard(c *gin.Context) {
	id := c.Param("id")
	started, err := h.board.Run(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.board.Snapshot(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !started {
		c.JSON(http.StatusConflict, gin.H{"error": "run already in progress", "card": viewOf(u)})
		return
	}
	c.JSON(http.StatusAccepted, viewOf(u))
}

func (h *handlers) removeCard(c *gin.Context) {
	if err := h.board.Remove(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) marketChart(c *gin.Context) {
	u, err := h.board.Snapshot(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if u.Card.Kind != catalog.KindMarket {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card does not produce market data"})
		return
	}
	var data report.MarketData
	switch v := u.State.Result.(type) {
	case report.MarketData:
		data = v
	case *report.MarketData:
		if v != nil {
			data = *v
		}
	}
	if len(data.Data) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no market data yet"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chart.RenderMarket(c.Writer, data, u.Card.Name); err != nil {
		logger.Warnf("[http] market chart %s: %v", u.Card.ID, err)
	}
}

func (h *handlers) listRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run journal disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 500 {
		limit = 500
	}
	entries, err := h.runs.Recent(c.Request.Context(), journal.Query{
		UnitID: c.Query("card"),
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": entries})
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindUnknownUnit:
		status = http.StatusNotFound
	case apperr.KindEmptyInput:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperr.KindOf(err)})
}
