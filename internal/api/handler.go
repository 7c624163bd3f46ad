package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"ondc-seller/internal/audit"
	"ondc-seller/internal/beckn"
	"ondc-seller/internal/crypto"
	"ondc-seller/internal/models"
	"ondc-seller/internal/util"
	"ondc-seller/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var becknActions = []string{"search", "select", "init", "confirm", "status", "update", "cancel"}

// ActionProcessor runs the asynchronous half of an ACKed action.
type ActionProcessor interface {
	Supports(action string) bool
	Process(ctx context.Context, action string, rawBody []byte, bctx *beckn.Context)
}

// SubscriberStore is the subset of the store the ingress layer needs.
type SubscriberStore interface {
	GetSubscriberByID(ctx context.Context, subscriberID string) (*models.Subscriber, error)
	UpdateSubscriberKeys(ctx context.Context, sub *models.Subscriber) error
	UpdateRegistrationStatus(ctx context.Context, subscriberID, status string) error
}

// OrderStore covers the seller-facing order operations reachable from HTTP.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID, tenantID string) (*models.Order, error)
	ListOrders(ctx context.Context, tenantID string) ([]models.Order, error)
	UpdateOrderState(ctx context.Context, orderID, state string) error
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetFulfillmentByOrderID(ctx context.Context, orderID string) (*models.Fulfillment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

// RegistryClient covers the registry interactions reachable from HTTP.
type RegistryClient interface {
	Subscribe(ctx context.Context, sub *models.Subscriber) (string, error)
	LookupPublicKey(ctx context.Context, environment, subscriberID, uniqueKeyID string) (string, error)
}

// Options carries the ingress configuration.
type Options struct {
	Environment string
	// VerifySignatures enforces Ed25519 signature checks on inbound
	// protocol calls. Off by default: staging gateways send unsigned search.
	VerifySignatures bool
	// RegistryEncryptionPublicKey is the registry's X25519 key used to
	// decrypt the on_subscribe challenge.
	RegistryEncryptionPublicKey string
}

// Handler contains the HTTP handlers for the protocol surface.
type Handler struct {
	processor   ActionProcessor
	pool        *worker.Pool
	subscribers SubscriberStore
	orders      OrderStore
	registry    RegistryClient
	audit       audit.Recorder
	opts        Options
	logger      *zap.Logger
}

// NewHandler creates the ingress handler.
func NewHandler(proc ActionProcessor, pool *worker.Pool, subscribers SubscriberStore, orders OrderStore, registry RegistryClient, auditLog audit.Recorder, opts Options) *Handler {
	return &Handler{
		processor:   proc,
		pool:        pool,
		subscribers: subscribers,
		orders:      orders,
		registry:    registry,
		audit:       auditLog,
		opts:        opts,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ondc := router.Group("/ondc")
	{
		for _, action := range becknActions {
			ondc.POST("/"+action, h.handleAction(action))
		}
		ondc.POST("/on_subscribe", h.handleOnSubscribe)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/subscribers/:subscriber_id/keys", h.rotateKeys)
		admin.POST("/subscribers/:subscriber_id/subscribe", h.subscribe)
		admin.GET("/orders", h.listOrders)
		admin.GET("/orders/:order_id", h.getOrder)
		admin.POST("/orders/:order_id/accept", h.acceptOrder)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// handleAction implements the synchronous half of the two-phase contract:
// parse only the envelope, ACK (or NACK) immediately, then hand the raw body
// to the processor pool.
func (h *Handler) handleAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.ActionsReceivedTotal.WithLabelValues(action).Inc()

		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			h.nack(c, action, nil, "failed to read request body")
			return
		}

		bctx, err := beckn.ParseContext(rawBody)
		if err != nil {
			h.logger.Error("Failed to parse request envelope",
				zap.String("action", action), zap.Error(err))
			h.nack(c, action, nil, "Invalid request")
			return
		}

		if h.opts.VerifySignatures {
			if err := h.verifySignature(c, rawBody); err != nil {
				h.logger.Warn("Signature verification failed",
					zap.String("action", action),
					zap.String("bap_id", bctx.BapID),
					zap.Error(err))
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{"type": "AUTH-ERROR", "code": "401", "message": "signature verification failed"},
				})
				return
			}
		}

		h.logger.Info("Received action",
			zap.String("action", action),
			zap.String("bap_id", bctx.BapID),
			zap.String("domain", bctx.Domain),
			zap.String("transaction_id", bctx.TransactionID))

		if !h.processor.Supports(action) {
			h.nack(c, action, bctx, "unsupported action")
			return
		}

		submitted := h.pool.Submit(func(ctx context.Context) {
			h.processor.Process(ctx, action, rawBody, bctx)
		})
		if !submitted {
			h.logger.Warn("Processor queue full, request dropped after ACK",
				zap.String("action", action),
				zap.String("transaction_id", bctx.TransactionID))
		}

		c.JSON(http.StatusOK, beckn.NewAck(bctx))
	}
}

func (h *Handler) nack(c *gin.Context, action string, bctx *beckn.Context, message string) {
	util.ActionsNackedTotal.WithLabelValues(action).Inc()
	transactionID := ""
	if bctx != nil {
		transactionID = bctx.TransactionID
	}
	h.audit.Incoming(c.Request.Context(), "", action, transactionID, "", "", "", http.StatusBadRequest, message)
	c.JSON(http.StatusBadRequest, beckn.NewNack(bctx, &beckn.Error{
		Type:    "JSON-PARSING-ERROR",
		Code:    "400",
		Message: message,
	}))
}

// verifySignature checks the inbound Authorization header against the
// sender's signing key from the registry.
func (h *Handler) verifySignature(c *gin.Context, rawBody []byte) error {
	header := c.GetHeader("Authorization")
	parts, err := crypto.ParseAuthorizationHeader(header)
	if err != nil {
		return err
	}
	senderKey, err := h.registry.LookupPublicKey(c.Request.Context(),
		h.opts.Environment, parts.SubscriberID(), parts.UniqueKeyID())
	if err != nil {
		return err
	}
	return crypto.VerifyAuthorizationHeader(header, rawBody, senderKey)
}

type onSubscribeRequest struct {
	SubscriberID string `json:"subscriber_id"`
	Challenge    string `json:"challenge"`
}

// handleOnSubscribe answers the registry's key-ownership challenge. This is
// the one synchronous protocol endpoint: the decrypted answer goes back in
// the response body.
func (h *Handler) handleOnSubscribe(c *gin.Context) {
	var req onSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SubscriberID == "" || req.Challenge == "" {
		h.logger.Error("on_subscribe missing subscriber_id or challenge")
		c.JSON(http.StatusBadRequest, gin.H{"answer": ""})
		return
	}

	h.logger.Info("Received on_subscribe challenge",
		zap.String("subscriber_id", req.SubscriberID))

	sub, err := h.subscribers.GetSubscriberByID(c.Request.Context(), req.SubscriberID)
	if err != nil {
		h.logger.Error("Unknown subscriber for on_subscribe",
			zap.String("subscriber_id", req.SubscriberID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"answer": ""})
		return
	}

	answer, err := crypto.DecryptChallenge(req.Challenge,
		sub.EncryptionPrivateKey, h.opts.RegistryEncryptionPublicKey)
	if err != nil {
		h.logger.Error("Failed to decrypt on_subscribe challenge",
			zap.String("subscriber_id", req.SubscriberID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"answer": "", "error": err.Error()})
		return
	}

	if err := h.subscribers.UpdateRegistrationStatus(c.Request.Context(),
		req.SubscriberID, models.RegistrationStatusSubscribed); err != nil {
		h.logger.Error("Failed to mark subscriber SUBSCRIBED",
			zap.String("subscriber_id", req.SubscriberID), zap.Error(err))
	}

	h.logger.Info("on_subscribe challenge solved",
		zap.String("subscriber_id", req.SubscriberID))
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// rotateKeys issues fresh signing and encryption key pairs for a subscriber.
// The old keys stop being advertised but remain on record in the registry
// until the next subscribe call.
func (h *Handler) rotateKeys(c *gin.Context) {
	subscriberID := c.Param("subscriber_id")
	sub, err := h.subscribers.GetSubscriberByID(c.Request.Context(), subscriberID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}

	signing, err := crypto.GenerateSigningKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate signing keys", "details": err.Error()})
		return
	}
	encryption, err := crypto.GenerateEncryptionKeyPair()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate encryption keys", "details": err.Error()})
		return
	}

	sub.SigningPublicKey = signing.PublicKey
	sub.SigningPrivateKey = signing.PrivateKey
	sub.EncryptionPublicKey = encryption.PublicKey
	sub.EncryptionPrivateKey = encryption.PrivateKey
	sub.UniqueKeyID = uuid.New().String()

	if err := h.subscribers.UpdateSubscriberKeys(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store keys", "details": err.Error()})
		return
	}

	h.logger.Info("Rotated subscriber keys",
		zap.String("subscriber_id", subscriberID),
		zap.String("unique_key_id", sub.UniqueKeyID))
	c.JSON(http.StatusOK, gin.H{
		"subscriber_id":         sub.SubscriberID,
		"unique_key_id":         sub.UniqueKeyID,
		"signing_public_key":    sub.SigningPublicKey,
		"encryption_public_key": sub.EncryptionPublicKey,
	})
}

// subscribe triggers network registration for a subscriber.
func (h *Handler) subscribe(c *gin.Context) {
	subscriberID := c.Param("subscriber_id")
	sub, err := h.subscribers.GetSubscriberByID(c.Request.Context(), subscriberID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}

	status, subErr := h.registry.Subscribe(c.Request.Context(), sub)
	if err := h.subscribers.UpdateRegistrationStatus(c.Request.Context(), subscriberID, status); err != nil {
		h.logger.Error("Failed to record registration status",
			zap.String("subscriber_id", subscriberID), zap.Error(err))
	}
	if subErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"registration_status": status, "error": subErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"registration_status": status})
}

// acceptOrder is the manual seller action moving a confirmed order from
// CREATED to ACCEPTED. Orders in any other state are rejected; the buyer app
// sees the new state on its next status poll.
func (h *Handler) acceptOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	if !models.ValidOrderTransition(order.State, models.OrderStateAccepted) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order cannot be accepted",
			"state": order.State,
		})
		return
	}

	if err := h.orders.UpdateOrderState(c.Request.Context(), order.ID, models.OrderStateAccepted); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order", "details": err.Error()})
		return
	}

	h.logger.Info("Order accepted by seller",
		zap.String("order_id", order.ID),
		zap.String("beckn_order_id", order.BecknOrderID))
	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"beckn_order_id": order.BecknOrderID,
		"state":          models.OrderStateAccepted,
	})
}

// getOrder returns one order with its line items and the latest fulfillment
// and payment records.
func (h *Handler) getOrder(c *gin.Context) {
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	items, err := h.orders.GetOrderItems(c.Request.Context(), order.ID)
	if err != nil {
		h.logger.Warn("Failed to load order items",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	resp := gin.H{"order": order, "items": items}
	if f, err := h.orders.GetFulfillmentByOrderID(c.Request.Context(), order.ID); err == nil {
		resp["fulfillment"] = f
	}
	if p, err := h.orders.GetPaymentByOrderID(c.Request.Context(), order.ID); err == nil {
		resp["payment"] = p
	}
	c.JSON(http.StatusOK, resp)
}

// listOrders returns all orders for a tenant, newest first.
func (h *Handler) listOrders(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// loadOrder resolves the tenant-scoped order from the route. On failure the
// response is already written and ok is false.
func (h *Handler) loadOrder(c *gin.Context) (*models.Order, bool) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return nil, false
	}

	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("order_id"), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order", "details": err.Error()})
		return nil, false
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	return order, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
