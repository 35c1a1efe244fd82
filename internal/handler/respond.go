package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"horizon/internal/apperr"
	"horizon/internal/model"
)

// respondError maps a domain error to its HTTP status. Internal detail is
// logged and never serialized.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, model.NewErrorResponse("internal error", string(kind)))
		return
	}
	c.JSON(status, model.NewErrorResponse(err.Error(), string(kind)))
}
