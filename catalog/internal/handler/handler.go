package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/model"
	_ "github.com/Astemirdum/book-catalog/docs"
	"github.com/Astemirdum/book-catalog/pkg/jsonx"
	md "github.com/Astemirdum/book-catalog/pkg/middleware"
	"github.com/Astemirdum/book-catalog/pkg/validate"
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc: bookSvc,
		log:     log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HTTPErrorHandler = h.errorHandler
	e.JSONSerializer = jsonx.Serializer{}
	e.Validator = validate.NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/docs/*", echoSwagger.WrapHandler)

	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		md.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.ListBooks)
	api.GET("/books/:id", h.GetBook)
	api.POST("/books", h.CreateBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.PATCH("/books/:id", h.ToggleAvailability)
	api.DELETE("/books/:id", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.bookSvc.Health(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
	}
	return c.String(http.StatusOK, "OK")
}

// ListBooks godoc
// @Summary List all books ordered by title
// @Tags Books
// @Produce json
// @Success 200 {object} dataResponse{data=[]model.Book}
// @Router /api/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.bookSvc.ListBooks(c.Request().Context())
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: books})
}

// GetBook godoc
// @Summary Get a book by id
// @Tags Books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} dataResponse{data=model.Book}
// @Failure 400 {object} validationResponse
// @Failure 404 {object} errorResponse
// @Router /api/books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := validate.ParseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	book, err := h.bookSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: book})
}

// CreateBook godoc
// @Summary Register a new book
// @Tags Books
// @Accept json
// @Produce json
// @Param book body model.BookRequest true "book"
// @Success 201 {object} dataResponse{data=model.Book}
// @Failure 400 {object} validationResponse
// @Router /api/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	req, err := h.bindBook(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: book})
}

// UpdateBook godoc
// @Summary Replace the descriptive fields of a book
// @Tags Books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param book body model.BookRequest true "book"
// @Success 200 {object} dataResponse{data=model.Book}
// @Failure 400 {object} validationResponse
// @Failure 404 {object} errorResponse
// @Router /api/books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := validate.ParseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	req, err := h.bindBook(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: book})
}

// ToggleAvailability godoc
// @Summary Flip the availability of a book
// @Tags Books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} dataResponse{data=model.Book}
// @Failure 400 {object} validationResponse
// @Failure 404 {object} errorResponse
// @Router /api/books/{id} [patch]
func (h *Handler) ToggleAvailability(c echo.Context) error {
	id, err := validate.ParseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	book, err := h.bookSvc.ToggleAvailability(c.Request().Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: book})
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags Books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} messageResponse
// @Failure 400 {object} validationResponse
// @Failure 404 {object} errorResponse
// @Router /api/books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := validate.ParseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	if err = h.bookSvc.DeleteBook(c.Request().Context(), id); err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "book deleted"})
}

func (h *Handler) bindBook(c echo.Context) (model.BookRequest, error) {
	var req model.BookRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return model.BookRequest{}, validate.NewError("body", "invalid JSON body")
	}
	if err := c.Validate(req); err != nil {
		return model.BookRequest{}, err
	}
	return req, nil
}
