// ABOUTME: Typed calls for the auth and system management endpoints
// ABOUTME: Every call goes through Do so envelope and failure handling apply

package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
)

const systemPrefix = "/v1/system"

// HashCredential returns the lowercase hex SHA-256 digest sent for credentials
func HashCredential(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func call[T any](ctx context.Context, c *Client, method, path string, q url.Values, body any) (T, error) {
	var zero T
	resp, err := c.Do(ctx, method, systemPrefix+path, q, body)
	if err != nil {
		return zero, err
	}
	env, err := Decode[T](resp)
	if err != nil {
		return zero, err
	}
	return env.Data, nil
}

func (c *Client) exec(ctx context.Context, method, path string, body any) error {
	_, err := c.Do(ctx, method, systemPrefix+path, nil, body)
	return err
}

// Captcha calls GET /v1/system/captcha
func (c *Client) Captcha(ctx context.Context) (*Captcha, error) {
	return call[*Captcha](ctx, c, http.MethodGet, "/captcha", nil, nil)
}

// Login calls POST /v1/system/login with the request as given. Only an
// enveloped success carrying a token is a login; any other 2xx body is
// reported as a business failure.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, systemPrefix+"/login", nil, req)
	if err != nil {
		return nil, err
	}
	if !resp.Enveloped || resp.Code != CodeSuccess {
		return nil, c.report(&Error{Kind: KindBusiness, Code: resp.Code, Status: resp.Status, Message: rawMessage(resp.Raw, msgLoginFailed)})
	}
	env, err := Decode[*LoginResponse](resp)
	if err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Token == "" {
		return nil, c.report(&Error{Kind: KindBusiness, Code: resp.Code, Status: resp.Status, Message: msgLoginFailed})
	}
	return env.Data, nil
}

// rawMessage returns the message field of a JSON body, or fallback
func rawMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return fallback
	}
	return body.Message
}

// Logout calls GET /v1/system/logout and returns the raw result so callers
// can check the success code themselves
func (c *Client) Logout(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, systemPrefix+"/logout", nil, nil)
}

// UserPage calls GET /v1/system/user/page
func (c *Client) UserPage(ctx context.Context, q UserQuery) (*Page[User], error) {
	return call[*Page[User]](ctx, c, http.MethodGet, "/user/page", q.values(true), nil)
}

// UserList calls GET /v1/system/user/list
func (c *Client) UserList(ctx context.Context, q UserQuery) (*Page[User], error) {
	return call[*Page[User]](ctx, c, http.MethodGet, "/user/list", q.values(false), nil)
}

// UserLabels calls GET /v1/system/user/label
func (c *Client) UserLabels(ctx context.Context) ([]Label, error) {
	return call[[]Label](ctx, c, http.MethodGet, "/user/label", nil, nil)
}

// UserDetail calls GET /v1/system/user/{id}
func (c *Client) UserDetail(ctx context.Context, id string) (*User, error) {
	return call[*User](ctx, c, http.MethodGet, "/user/"+url.PathEscape(id), nil, nil)
}

// CreateUser calls POST /v1/system/user; the password is digested first
func (c *Client) CreateUser(ctx context.Context, req UserCreate) error {
	req.Password = HashCredential(req.Password)
	return c.exec(ctx, http.MethodPost, "/user", req)
}

// UpdateUser calls PUT /v1/system/user/{id}
func (c *Client) UpdateUser(ctx context.Context, id string, req UserUpdate) error {
	return c.exec(ctx, http.MethodPut, "/user/"+url.PathEscape(id), req)
}

// DeleteUser calls DELETE /v1/system/user/{id}
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), nil)
}

// EnableUser calls PUT /v1/system/user/enable/{id}
func (c *Client) EnableUser(ctx context.Context, id string, status Status) error {
	return c.exec(ctx, http.MethodPut, "/user/enable/"+url.PathEscape(id), EnableRequest{Status: status})
}

// ChangeUserPassword calls PUT /v1/system/user/password/{id}
func (c *Client) ChangeUserPassword(ctx context.Context, id, newPassword string) error {
	return c.exec(ctx, http.MethodPut, "/user/password/"+url.PathEscape(id),
		PasswordChange{NewPassword: HashCredential(newPassword)})
}

// ChangeOwnPassword calls PUT /v1/system/user/password/self
func (c *Client) ChangeOwnPassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.exec(ctx, http.MethodPut, "/user/password/self", PasswordChange{
		OldPassword: HashCredential(oldPassword),
		NewPassword: HashCredential(newPassword),
	})
}

// RolePage calls GET /v1/system/role/page
func (c *Client) RolePage(ctx context.Context, q RoleQuery) (*Page[Role], error) {
	return call[*Page[Role]](ctx, c, http.MethodGet, "/role/page", q.values(true), nil)
}

// RoleList calls GET /v1/system/role/list
func (c *Client) RoleList(ctx context.Context, q RoleQuery) (*Page[Role], error) {
	return call[*Page[Role]](ctx, c, http.MethodGet, "/role/list", q.values(false), nil)
}

// RoleLabels calls GET /v1/system/role/label
func (c *Client) RoleLabels(ctx context.Context) ([]Label, error) {
	return call[[]Label](ctx, c, http.MethodGet, "/role/label", nil, nil)
}

// RoleDetail calls GET /v1/system/role/{id}
func (c *Client) RoleDetail(ctx context.Context, id string) (*Role, error) {
	return call[*Role](ctx, c, http.MethodGet, "/role/"+url.PathEscape(id), nil, nil)
}

// CreateRole calls POST /v1/system/role
func (c *Client) CreateRole(ctx context.Context, req RoleRequest) error {
	return c.exec(ctx, http.MethodPost, "/role", req)
}

// UpdateRole calls PUT /v1/system/role/{id}
func (c *Client) UpdateRole(ctx context.Context, id string, req RoleRequest) error {
	return c.exec(ctx, http.MethodPut, "/role/"+url.PathEscape(id), req)
}

// DeleteRole calls DELETE /v1/system/role/{id}
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, "/role/"+url.PathEscape(id), nil)
}

// EnableRole calls PUT /v1/system/role/enable/{id}
func (c *Client) EnableRole(ctx context.Context, id string, status Status) error {
	return c.exec(ctx, http.MethodPut, "/role/enable/"+url.PathEscape(id), EnableRequest{Status: status})
}

// RoleMenus calls GET /v1/system/role/{id}/menus
func (c *Client) RoleMenus(ctx context.Context, roleID string) ([]RoleMenu, error) {
	return call[[]RoleMenu](ctx, c, http.MethodGet, "/role/"+url.PathEscape(roleID)+"/menus", nil, nil)
}

// BindRoleMenus calls PUT /v1/system/role/{id}/menus
func (c *Client) BindRoleMenus(ctx context.Context, roleID string, menuIDs []string) error {
	if menuIDs == nil {
		menuIDs = []string{}
	}
	return c.exec(ctx, http.MethodPut, "/role/"+url.PathEscape(roleID)+"/menus", RoleMenuBind{MenuIDs: menuIDs})
}

// AddRoleMenu calls POST /v1/system/role/{id}/menu/{menu_id}
func (c *Client) AddRoleMenu(ctx context.Context, roleID, menuID string) error {
	return c.exec(ctx, http.MethodPost, "/role/"+url.PathEscape(roleID)+"/menu/"+url.PathEscape(menuID), nil)
}

// RemoveRoleMenu calls DELETE /v1/system/role/{id}/menu/{menu_id}
func (c *Client) RemoveRoleMenu(ctx context.Context, roleID, menuID string) error {
	return c.exec(ctx, http.MethodDelete, "/role/"+url.PathEscape(roleID)+"/menu/"+url.PathEscape(menuID), nil)
}

// MenuPage calls GET /v1/system/menu/page
func (c *Client) MenuPage(ctx context.Context, q MenuQuery) (*Page[Menu], error) {
	return call[*Page[Menu]](ctx, c, http.MethodGet, "/menu/page", q.values(true), nil)
}

// MenuList calls GET /v1/system/menu/list
func (c *Client) MenuList(ctx context.Context, q MenuQuery) ([]Menu, error) {
	return call[[]Menu](ctx, c, http.MethodGet, "/menu/list", q.values(false), nil)
}

// MenuTree calls GET /v1/system/menu/tree
func (c *Client) MenuTree(ctx context.Context) ([]MenuTreeNode, error) {
	return call[[]MenuTreeNode](ctx, c, http.MethodGet, "/menu/tree", nil, nil)
}

// MenuLabels calls GET /v1/system/menu/label
func (c *Client) MenuLabels(ctx context.Context) ([]Label, error) {
	return call[[]Label](ctx, c, http.MethodGet, "/menu/label", nil, nil)
}

// MenuDetail calls GET /v1/system/menu/{id}
func (c *Client) MenuDetail(ctx context.Context, id string) (*Menu, error) {
	return call[*Menu](ctx, c, http.MethodGet, "/menu/"+url.PathEscape(id), nil, nil)
}

// CreateMenu calls POST /v1/system/menu
func (c *Client) CreateMenu(ctx context.Context, req MenuRequest) error {
	return c.exec(ctx, http.MethodPost, "/menu", req)
}

// UpdateMenu calls PUT /v1/system/menu/{id}
func (c *Client) UpdateMenu(ctx context.Context, id string, req MenuRequest) error {
	return c.exec(ctx, http.MethodPut, "/menu/"+url.PathEscape(id), req)
}

// DeleteMenu calls DELETE /v1/system/menu/{id}
func (c *Client) DeleteMenu(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, "/menu/"+url.PathEscape(id), nil)
}

// EnableMenu calls PUT /v1/system/menu/enable/{id}
func (c *Client) EnableMenu(ctx context.Context, id string, status Status) error {
	return c.exec(ctx, http.MethodPut, "/menu/enable/"+url.PathEscape(id), EnableRequest{Status: status})
}

// OnlineUsers calls GET /v1/system/onlineuser/list
func (c *Client) OnlineUsers(ctx context.Context, q OnlineUserQuery) (*Page[OnlineUser], error) {
	return call[*Page[OnlineUser]](ctx, c, http.MethodGet, "/onlineuser/list", q.values(), nil)
}

// OnlineUserLabels calls GET /v1/system/onlineuser/label
func (c *Client) OnlineUserLabels(ctx context.Context) ([]Label, error) {
	return call[[]Label](ctx, c, http.MethodGet, "/onlineuser/label", nil, nil)
}

// ClearOnlineUser calls DELETE /v1/system/onlineuser/clearance/{id}
func (c *Client) ClearOnlineUser(ctx context.Context, id string) error {
	return c.exec(ctx, http.MethodDelete, "/onlineuser/clearance/"+url.PathEscape(id), nil)
}

// OperationLogPage calls GET /v1/system/operation-log/page
func (c *Client) OperationLogPage(ctx context.Context, q OperationLogQuery) (*Page[OperationLog], error) {
	return call[*Page[OperationLog]](ctx, c, http.MethodGet, "/operation-log/page", q.values(), nil)
}
