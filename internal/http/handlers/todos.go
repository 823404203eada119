package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/utils"
	"github.com/gin-gonic/gin"
)

type TodosStore interface {
	Create(ctx context.Context, t todo.Todo) (todo.Todo, error)
	List(ctx context.Context, f todo.ListTodosFilter) ([]todo.Todo, error)
	Update(ctx context.Context, userID, id int64, req todo.UpdateTodoRequest) (todo.Todo, error)
}

type CacheObserver interface {
	ObserveCache(hit bool)
}

// invalidateTimeout bounds the cache bump that follows a committed write.
const invalidateTimeout = 2 * time.Second

type TodosHandler struct {
	repo     TodosStore
	cache    cache.Store
	observer CacheObserver
	timeout  time.Duration
}

func NewTodosHandler(repo TodosStore, store cache.Store, timeout time.Duration) *TodosHandler {
	return &TodosHandler{
		repo:    repo,
		cache:   store,
		timeout: timeout,
	}
}

func (h *TodosHandler) WithObserver(o CacheObserver) *TodosHandler {
	h.observer = o
	return h
}

// todosPage is what gets cached: the identity part of the response is
// always taken from the current request.
type todosPage struct {
	Todos      []todo.Todo `json:"todos"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

type listTodosResponse struct {
	Message    string      `json:"message"`
	User       user.User   `json:"user"`
	Todos      []todo.Todo `json:"todos"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func (h *TodosHandler) CreateTodo(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, middlewares.ReasonUnauthorized, "Unauthorized!")
		return
	}

	var req todo.CreateTodoRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	created, err := h.repo.Create(cctx, todo.NewFromCreateRequest(u.ID, req))
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "create_todo_failed", "err", err, "user_id", u.ID, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not create todo")
		return
	}

	h.invalidate(ctx.Request.Context(), u.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Todo created!",
		"todo":    created,
	})
}

func (h *TodosHandler) ListTodos(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, middlewares.ReasonUnauthorized, "Unauthorized!")
		return
	}

	limit := todo.DefaultListLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > todo.MaxListLimit {
			RespondBadRequest(ctx, "Invalid limit", gin.H{"limit": "must be between 1 and " + strconv.Itoa(todo.MaxListLimit)})
			return
		}
		limit = n
	}

	filter := todo.ListTodosFilter{UserID: u.ID, Limit: limit + 1}

	rawCursor := ctx.Query("cursor")
	if rawCursor != "" {
		cur, err := utils.DecodeTodoCursor(rawCursor)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		filter.AfterCreatedAt = &cur.CreatedAt
		filter.AfterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	// only the default first page is cached. The generation is read before
	// the repo so a write landing in between moves readers to a new key.
	var key string
	if rawCursor == "" && limit == todo.DefaultListLimit && h.cache != nil {
		if gen, ok := h.cache.Generation(cctx, utils.BuildTodosGenerationKey(u.ID)); ok {
			key = utils.BuildTodosListCacheKey(u.ID, gen)

			if page, ok := h.cachedPage(cctx, key); ok {
				RespondJSONWithETag(ctx, http.StatusOK, newListResponse(u, page))
				return
			}
		}
	}

	items, err := h.repo.List(cctx, filter)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list_todos_failed", "err", err, "user_id", u.ID, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not list todos")
		return
	}

	page := todosPage{Todos: items}
	if len(items) > limit {
		page.Todos = items[:limit]
		last := page.Todos[limit-1]

		next, err := utils.EncodeTodoCursor(last.CreatedAt, last.ID)
		if err != nil {
			RespondInternal(ctx, "Could not list todos")
			return
		}
		page.NextCursor = next
	}

	if key != "" {
		if b, err := json.Marshal(page); err == nil {
			h.cache.Set(cctx, key, b)
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, newListResponse(u, page))
}

func (h *TodosHandler) UpdateTodo(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, middlewares.ReasonUnauthorized, "Unauthorized!")
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid todo id", nil)
		return
	}

	var req todo.UpdateTodoRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.IsEmpty() {
		RespondBadRequest(ctx, "Nothing to update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	updated, err := h.repo.Update(cctx, u.ID, id, req)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			RespondNotFound(ctx, "todo_not_found", "Todo not found!")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "update_todo_failed", "err", err, "user_id", u.ID, "todo_id", id, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not update todo")
		return
	}

	h.invalidate(ctx.Request.Context(), u.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Todo updated!",
		"todo":    updated,
	})
}

func (h *TodosHandler) cachedPage(ctx context.Context, key string) (todosPage, bool) {
	b, hit := h.cache.Get(ctx, key)
	if h.observer != nil {
		h.observer.ObserveCache(hit)
	}
	if !hit {
		return todosPage{}, false
	}

	var page todosPage
	if err := json.Unmarshal(b, &page); err != nil {
		return todosPage{}, false
	}
	return page, true
}

// invalidate runs after the write committed, so it outlives a client that
// has already gone away.
func (h *TodosHandler) invalidate(parent context.Context, userID int64) {
	if h.cache == nil {
		return
	}

	ctx, cancel := config.WithTimeout(context.WithoutCancel(parent), invalidateTimeout)
	defer cancel()

	gen, err := h.cache.Bump(ctx, utils.BuildTodosGenerationKey(userID))
	if err != nil {
		slog.Default().WarnContext(ctx, "todos_cache_bump_failed", "user_id", userID, "err", err)
		return
	}

	// the previous generation's page is unreachable now; free it early
	h.cache.Delete(ctx, utils.BuildTodosListCacheKey(userID, gen-1))
}

func newListResponse(u user.User, page todosPage) listTodosResponse {
	todos := page.Todos
	if todos == nil {
		todos = []todo.Todo{}
	}

	return listTodosResponse{
		Message:    "Todos fetched!",
		User:       u,
		Todos:      todos,
		NextCursor: page.NextCursor,
	}
}
