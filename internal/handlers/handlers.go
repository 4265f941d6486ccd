package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/01moynul/culinamarket/internal/cart"
	"github.com/01moynul/culinamarket/internal/catalog"
	"github.com/01moynul/culinamarket/internal/checkout"
	"github.com/01moynul/culinamarket/internal/concierge"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/orders"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageStore saves an uploaded image and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
}

type ImageValidator interface {
	Validate(ctx context.Context, rawURL string) error
}

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Catalog      catalog.Service
	Carts        cart.Storage
	Orchestrator *checkout.Orchestrator
	Orders       *orders.Service
	Addresses    repository.AddressRepository
	Profiles     repository.ProfileRepository
	Concierge    *concierge.Dispatcher
	Images       ImageStore
	ImageURLs    ImageValidator
	Users        UserDirectory
	Log          *zap.Logger
}

// serverError logs err and answers with a generic 500.
func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.Log.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// pageFromQuery reads ?page= and ?limit=; services clamp the values.
func pageFromQuery(c *gin.Context) models.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return models.Page{Number: number, Size: size}
}
