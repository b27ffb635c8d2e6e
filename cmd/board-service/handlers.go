package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaviva/resto-live/internal/httpx"
	"github.com/mesaviva/resto-live/internal/live"
	"github.com/mesaviva/resto-live/internal/menu"
	"github.com/mesaviva/resto-live/internal/order"
	"github.com/mesaviva/resto-live/internal/staff"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(sessions *staff.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		sess, err := sessions.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, staff.ErrBadCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

func logoutHandler(sessions *staff.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := httpx.SessionFrom(c); ok {
			sessions.Logout(sess.Token)
		}
		c.Status(http.StatusNoContent)
	}
}

// canSeeBoard gates order routes: the board is scoped at startup, so a staff
// session must either belong to that restaurant or be a super admin.
func canSeeBoard(sess staff.Session, boardScope string) bool {
	if sess.Role == staff.RoleSuperAdmin {
		return true
	}
	return boardScope != "" && sess.RestaurantID == boardScope
}

func listOrdersHandler(board *live.Board, boardScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := httpx.SessionFrom(c)
		if !canSeeBoard(sess, boardScope) {
			c.JSON(http.StatusForbidden, gin.H{"error": "outside your restaurant scope"})
			return
		}
		orders, stats := board.Snapshot()
		c.JSON(http.StatusOK, gin.H{"orders": orders, "stats": stats})
	}
}

func orderStatsHandler(board *live.Board, boardScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := httpx.SessionFrom(c)
		if !canSeeBoard(sess, boardScope) {
			c.JSON(http.StatusForbidden, gin.H{"error": "outside your restaurant scope"})
			return
		}
		_, stats := board.Snapshot()
		c.JSON(http.StatusOK, stats)
	}
}

func getOrderItemsHandler(board *live.Board, boardScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := httpx.SessionFrom(c)
		if !canSeeBoard(sess, boardScope) {
			c.JSON(http.StatusForbidden, gin.H{"error": "outside your restaurant scope"})
			return
		}
		o, ok := board.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		items := o.Items
		if items == nil {
			items = []order.Item{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func updateOrderStatusHandler(board *live.Board, boardScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := httpx.SessionFrom(c)
		if !canSeeBoard(sess, boardScope) {
			c.JSON(http.StatusForbidden, gin.H{"error": "outside your restaurant scope"})
			return
		}
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		target, ok := order.ParseStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		err := board.Transition(c.Request.Context(), c.Param("id"), target)
		switch {
		case err == nil:
			o, _ := board.Get(c.Param("id"))
			c.JSON(http.StatusOK, o)
		case errors.Is(err, live.ErrUnknownOrder):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, order.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, live.ErrTransitionInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "status update failed, try again"})
		}
	}
}

// reloadOrdersHandler re-runs the bulk load; the client retries through here
// after a load failure.
func reloadOrdersHandler(board *live.Board, boardScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := httpx.SessionFrom(c)
		if !canSeeBoard(sess, boardScope) {
			c.JSON(http.StatusForbidden, gin.H{"error": "outside your restaurant scope"})
			return
		}
		if err := board.Load(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "reload failed, try again"})
			return
		}
		orders, stats := board.Snapshot()
		c.JSON(http.StatusOK, gin.H{"orders": orders, "stats": stats})
	}
}

// menuScope narrows menu queries to the caller's restaurant; super admins may
// pass ?restaurant_id= to inspect any one of them.
func menuScope(c *gin.Context) string {
	sess, _ := httpx.SessionFrom(c)
	if sess.Role == staff.RoleSuperAdmin {
		return c.Query("restaurant_id")
	}
	return sess.RestaurantID
}

// menuItemVisible gates the item-by-id routes: staff only act on their own
// restaurant's items, super admins on any. A foreign item answers 404, same
// as a missing one, so other tenants' ids are not confirmed.
func menuItemVisible(c *gin.Context, m *menu.MenuItem) bool {
	sess, _ := httpx.SessionFrom(c)
	if sess.Role == staff.RoleSuperAdmin {
		return true
	}
	return sess.RestaurantID != "" && sess.RestaurantID == m.RestaurantID
}

func listMenuHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q menu.Query
		q.RestaurantID = menuScope(c)
		q.Limit = intQuery(c, "limit", 20)
		q.Offset = intQuery(c, "offset", 0)
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "list failed"})
			return
		}
		if items == nil {
			items = []menu.MenuItem{}
		}
		c.JSON(http.StatusOK, menu.ListResponse{Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

func searchMenuHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := menu.Query{
			RestaurantID: menuScope(c),
			Q:            c.Query("q"),
			Limit:        intQuery(c, "limit", 20),
			Offset:       intQuery(c, "offset", 0),
		}
		if len(q.Q) < 2 {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "q must be at least 2 characters"})
			return
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "search failed"})
			return
		}
		if items == nil {
			items = []menu.MenuItem{}
		}
		c.JSON(http.StatusOK, menu.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

func getMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil || !menuItemVisible(c, m) {
			c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func createMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req menu.CreateMenuItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Price == "" {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "name and price are required"})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "invalid price"})
			return
		}
		available := true
		if req.Available != nil {
			available = *req.Available
		}
		m := &menu.MenuItem{
			ID:           uuid.NewString(),
			RestaurantID: menuScope(c),
			Name:         req.Name,
			Description:  req.Description,
			Category:     req.Category,
			Price:        price,
			Available:    available,
			ImageURL:     req.ImageURL,
		}
		if m.RestaurantID == "" {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "restaurant_id is required"})
			return
		}
		if err := repo.Create(c.Request.Context(), m); err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "create failed"})
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func updateMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req menu.UpdateMenuItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "invalid json"})
			return
		}
		cur, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil || !menuItemVisible(c, cur) {
			c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
			return
		}
		updatePrice := false
		price := cur.Price
		if req.Price != "" {
			if price, err = decimal.NewFromString(req.Price); err != nil || price.IsNegative() {
				c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "invalid price"})
				return
			}
			updatePrice = true
		}
		available := cur.Available
		if req.Available != nil {
			available = *req.Available
		}
		m := &menu.MenuItem{
			ID:          cur.ID,
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       price,
			Available:   available,
			ImageURL:    req.ImageURL,
		}
		if err := repo.Update(c.Request.Context(), m, updatePrice); err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "update failed"})
			return
		}
		out, err := repo.GetByID(c.Request.Context(), cur.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "refetch failed"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func setMenuAvailabilityHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req availabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, menu.HTTPError{Error: "available is required"})
			return
		}
		cur, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil || !menuItemVisible(c, cur) {
			c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
			return
		}
		if err := repo.SetAvailability(c.Request.Context(), c.Param("id"), *req.Available); err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "update failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func deleteMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil || !menuItemVisible(c, cur) {
			c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
			return
		}
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, menu.HTTPError{Error: "delete failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, menu.HTTPError{Error: "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
