package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
	"github.com/saturnino-fabrica-de-software/emotune/internal/recommend"
)

// PlaylistTable interface for the recommendation table
type PlaylistTable interface {
	Recommend(index int) (string, error)
	Entries() []recommend.Entry
}

type PlaylistHandler struct {
	table PlaylistTable
}

func NewPlaylistHandler(table PlaylistTable) *PlaylistHandler {
	return &PlaylistHandler{table: table}
}

// PlaylistsResponse response for list endpoint
type PlaylistsResponse struct {
	Playlists []recommend.Entry `json:"playlists"`
}

// List GET /playlists
func (h *PlaylistHandler) List(c *fiber.Ctx) error {
	return c.JSON(PlaylistsResponse{Playlists: h.table.Entries()})
}

// Redirect GET /get_playlists?emotion=
// The emotion may be given as its index or its label.
func (h *PlaylistHandler) Redirect(c *fiber.Ctx) error {
	query := c.Query("emotion")
	index, err := strconv.Atoi(query)
	if err != nil {
		emotion, parseErr := domain.ParseEmotion(query)
		if parseErr != nil {
			return parseErr
		}
		index = emotion.Index()
	}

	url, err := h.table.Recommend(index)
	if err != nil {
		return err
	}

	return c.Redirect(url, fiber.StatusFound)
}
