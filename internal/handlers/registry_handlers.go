package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/authz"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/schema"
	"github.com/guardrail-labs/guardrail-api/internal/types/requests"
	"github.com/guardrail-labs/guardrail-api/internal/types/responses"
)

// RegistryHandler serves the role and function schema read surface plus the
// configuration batch entry point
type RegistryHandler struct {
	common *CommonServices
}

// NewRegistryHandler creates a new RegistryHandler instance
func NewRegistryHandler(common *CommonServices) *RegistryHandler {
	return &RegistryHandler{common: common}
}

func toRoleResponse(v authz.RoleView) responses.RoleResponse {
	resp := responses.RoleResponse{
		Hash:        v.Hash.Hex(),
		Name:        v.Name,
		MaxMembers:  v.MaxMembers,
		Members:     make([]string, 0, len(v.Members)),
		Permissions: make([]responses.PermissionResponse, 0, len(v.Permissions)),
	}
	for _, m := range v.Members {
		resp.Members = append(resp.Members, m.Hex())
	}
	for _, p := range v.Permissions {
		resp.Permissions = append(resp.Permissions, toPermissionResponse(p))
	}
	return resp
}

func toPermissionResponse(p authz.FunctionPermission) responses.PermissionResponse {
	out := responses.PermissionResponse{Function: p.Function.Hex()}
	for _, kind := range p.Actions.Kinds() {
		out.Actions = append(out.Actions, kind.String())
	}
	for _, fn := range p.ActsOn {
		out.ActsOn = append(out.ActsOn, fn.Hex())
	}
	return out
}

func toFunctionSchemaResponse(s schema.FunctionSchema) responses.FunctionSchemaResponse {
	resp := responses.FunctionSchemaResponse{
		Function:          s.Function.Hex(),
		Signature:         s.Signature,
		OperationCategory: s.OperationCategory.Hex(),
		OperationName:     s.OperationName,
		Guarded:           s.Guarded,
	}
	for _, kind := range s.SupportedActions.Kinds() {
		resp.SupportedActions = append(resp.SupportedActions, kind.String())
	}
	for _, fn := range s.HandlerFor {
		resp.HandlerFor = append(resp.HandlerFor, fn.Hex())
	}
	return resp
}

// roleHashParam accepts either a role name or a 0x-prefixed 32-byte hash.
func roleHashParam(c *gin.Context) common.Hash {
	raw := c.Param("role")
	if len(raw) == 66 && raw[:2] == "0x" {
		return common.HexToHash(raw)
	}
	return guard.RoleHash(raw)
}

// GetRole godoc
// @Summary Get a role with its members and permissions
// @Description Looks up a role by name or by its 0x-prefixed hash
// @Tags registry
// @Produce json
// @Param role path string true "Role name or hash"
// @Success 200 {object} responses.RoleResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /roles/{role} [get]
func (h *RegistryHandler) GetRole(c *gin.Context) {
	view, err := h.common.engine.Role(roleHashParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoleResponse(view))
}

// ListRoles godoc
// @Summary List all roles
// @Tags registry
// @Produce json
// @Success 200 {array} responses.RoleResponse
// @Security ApiKeyAuth
// @Router /roles [get]
func (h *RegistryHandler) ListRoles(c *gin.Context) {
	views := h.common.engine.Roles()
	out := make([]responses.RoleResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toRoleResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

// GetFunction godoc
// @Summary Get a registered function schema
// @Tags registry
// @Produce json
// @Param selector path string true "0x-prefixed 4-byte selector"
// @Success 200 {object} responses.FunctionSchemaResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /functions/{selector} [get]
func (h *RegistryHandler) GetFunction(c *gin.Context) {
	fn, err := guard.ParseSelector(c.Param("selector"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}
	s, err := h.common.engine.Schema(fn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFunctionSchemaResponse(s))
}

// ListFunctions godoc
// @Summary List all registered function schemas
// @Tags registry
// @Produce json
// @Success 200 {array} responses.FunctionSchemaResponse
// @Security ApiKeyAuth
// @Router /functions [get]
func (h *RegistryHandler) ListFunctions(c *gin.Context) {
	schemas := h.common.engine.Schemas()
	out := make([]responses.FunctionSchemaResponse, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, toFunctionSchemaResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// GetWhitelist godoc
// @Summary Get the target whitelist of a function
// @Description Restricted is false when no whitelist is configured, meaning any target is allowed
// @Tags registry
// @Produce json
// @Param selector path string true "0x-prefixed 4-byte selector"
// @Success 200 {object} responses.WhitelistResponse
// @Failure 400 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /functions/{selector}/whitelist [get]
func (h *RegistryHandler) GetWhitelist(c *gin.Context) {
	fn, err := guard.ParseSelector(c.Param("selector"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}
	targets, restricted := h.common.engine.Whitelist(fn)
	resp := responses.WhitelistResponse{
		Function:   fn.Hex(),
		Restricted: restricted,
	}
	for _, t := range targets {
		resp.Targets = append(resp.Targets, t.Hex())
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitBatch godoc
// @Summary Submit a configuration batch
// @Description Encodes the batch and requests it as a normal transaction against the batch executor, subject to the time lock and approval flow; all actions in the batch apply atomically on execution
// @Tags admin
// @Accept json
// @Produce json
// @Param body body requests.SubmitBatchRequest true "Configuration batch"
// @Success 201 {object} responses.TransactionResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/batch [post]
func (h *RegistryHandler) SubmitBatch(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req requests.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Actions) == 0 {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "batch must contain at least one action"})
		return
	}

	batch := make(admin.Batch, 0, len(req.Actions))
	for _, a := range req.Actions {
		kind := admin.ActionKind(a.Kind)
		if !kind.Valid() {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "unknown batch action kind: " + a.Kind})
			return
		}
		batch = append(batch, admin.Action{Kind: kind, Payload: json.RawMessage(a.Payload)})
	}
	args, err := admin.EncodeBatch(batch)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	params := guard.TxParams{
		Target:        h.common.engine.HandlerTarget(),
		Function:      admin.BatchSelector(),
		ExecutionArgs: args,
	}
	rec, err := h.common.engine.Request(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}

	h.common.logger.Info("configuration batch requested",
		zap.Uint64("tx_id", rec.TxID),
		zap.Int("actions", len(batch)),
		zap.String("requester", caller.Hex()),
	)
	c.JSON(http.StatusCreated, toTransactionResponse(rec))
}
