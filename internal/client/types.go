// ABOUTME: Request and response types for the Quebec system API
// ABOUTME: Field names follow the JSON wire format of the control plane

package client

import (
	"net/url"
	"strconv"
)

// Status is the enabled/disabled flag used across system resources
type Status int

const (
	StatusEnabled  Status = 1
	StatusDisabled Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	default:
		return "-"
	}
}

// Toggle returns the opposite status
func (s Status) Toggle() Status {
	if s == StatusEnabled {
		return StatusDisabled
	}
	return StatusEnabled
}

// MenuType distinguishes directories, pages and buttons
type MenuType int

const (
	MenuDirectory MenuType = 1
	MenuPage      MenuType = 2
	MenuButton    MenuType = 3
)

func (m MenuType) String() string {
	switch m {
	case MenuDirectory:
		return "directory"
	case MenuPage:
		return "menu"
	case MenuButton:
		return "button"
	default:
		return "-"
	}
}

// OperationType is the audited action recorded for a user
type OperationType int

const (
	OperationLogin OperationType = iota + 1
	OperationLogout
	OperationUserCreate
	OperationUserUpdate
	OperationUserDelete
	OperationRoleCreate
	OperationRoleUpdate
	OperationRoleDelete
	OperationMenuCreate
	OperationMenuUpdate
	OperationMenuDelete
	OperationOnlineUserClearance
	OperationLogSearch
	OperationLogExport
	OperationLogClear
	OperationPasswordChange
	OperationUserEnable
	OperationRoleEnable
	OperationMenuEnable
	OperationRoleBindMenus
)

var operationNames = map[OperationType]string{
	OperationLogin:               "login",
	OperationLogout:              "logout",
	OperationUserCreate:          "create user",
	OperationUserUpdate:          "update user",
	OperationUserDelete:          "delete user",
	OperationRoleCreate:          "create role",
	OperationRoleUpdate:          "update role",
	OperationRoleDelete:          "delete role",
	OperationMenuCreate:          "create menu",
	OperationMenuUpdate:          "update menu",
	OperationMenuDelete:          "delete menu",
	OperationOnlineUserClearance: "kick online user",
	OperationLogSearch:           "query logs",
	OperationLogExport:           "export logs",
	OperationLogClear:            "clear logs",
	OperationPasswordChange:      "change password",
	OperationUserEnable:          "toggle user",
	OperationRoleEnable:          "toggle role",
	OperationMenuEnable:          "toggle menu",
	OperationRoleBindMenus:       "bind role menus",
}

func (o OperationType) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown (" + strconv.Itoa(int(o)) + ")"
}

// Page is a paginated list
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PageQuery selects a page; zero values fall back to page 1 of 10
type PageQuery struct {
	Page     int
	PageSize int
}

// Label is a selectable option returned by the label endpoints
type Label struct {
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	Children []Label `json:"children,omitempty"`
}

// Captcha is a login challenge
type Captcha struct {
	ID       string `json:"id"`
	Pictures string `json:"pictures"`
	Length   int    `json:"length"`
}

// LoginRequest is the login body; credentials are digested before sending
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Captcha   string `json:"captcha"`
	CaptchaID string `json:"captcha_id"`
}

// LoginResponse is the login result
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	RoleName string `json:"role_name"`
}

// User is a console account
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Nickname      string `json:"nickname"`
	Email         string `json:"email,omitempty"`
	RoleID        string `json:"role_id,omitempty"`
	RoleName      string `json:"role_name,omitempty"`
	Status        Status `json:"status"`
	Remark        string `json:"remark,omitempty"`
	LastLoginTime int64  `json:"last_login_time,omitempty"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

// UserQuery filters the user list
type UserQuery struct {
	PageQuery
	Username string
	Nickname string
	Email    string
	RoleID   string
	Status   Status
}

// UserCreate is the body for a new user
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	RoleID   string `json:"role_id,omitempty"`
	Status   Status `json:"status,omitempty"`
	Remark   string `json:"remark,omitempty"`
}

// UserUpdate is the body for editing a user
type UserUpdate struct {
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	RoleID   string `json:"role_id,omitempty"`
	Status   Status `json:"status,omitempty"`
	Remark   string `json:"remark,omitempty"`
}

// PasswordChange is the body for password updates
type PasswordChange struct {
	OldPassword string `json:"old_password,omitempty"`
	NewPassword string `json:"new_password"`
}

// EnableRequest toggles a resource
type EnableRequest struct {
	Status Status `json:"status"`
}

// Role groups menu permissions
type Role struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Remark    string `json:"remark,omitempty"`
	Status    Status `json:"status"`
	System    Status `json:"system,omitempty"`
	Users     int    `json:"users,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// RoleQuery filters the role list
type RoleQuery struct {
	PageQuery
	Name   string
	Status Status
}

// RoleRequest creates or edits a role
type RoleRequest struct {
	Name   string `json:"name"`
	Remark string `json:"remark,omitempty"`
}

// RoleMenu is a menu bound to a role
type RoleMenu struct {
	MenuID   string `json:"menu_id"`
	MenuName string `json:"menu_name"`
}

// RoleMenuBind replaces a role's menus
type RoleMenuBind struct {
	MenuIDs []string `json:"menu_ids"`
}

// Menu is a navigation entry or API permission
type Menu struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	MenuType      MenuType `json:"menu_type"`
	APIPath       string   `json:"api_path,omitempty"`
	APIPathMethod string   `json:"api_path_method,omitempty"`
	Order         int      `json:"order"`
	ParentID      string   `json:"parent_id,omitempty"`
	ParentName    string   `json:"parent_name,omitempty"`
	Component     string   `json:"component,omitempty"`
	Status        Status   `json:"status"`
	Remark        string   `json:"remark,omitempty"`
}

// MenuTreeNode is a menu with its children
type MenuTreeNode struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	MenuType      MenuType       `json:"menu_type"`
	APIPath       string         `json:"api_path,omitempty"`
	APIPathMethod string         `json:"api_path_method,omitempty"`
	Order         int            `json:"order"`
	Component     string         `json:"component,omitempty"`
	Status        Status         `json:"status"`
	Children      []MenuTreeNode `json:"children,omitempty"`
}

// MenuQuery filters the menu list
type MenuQuery struct {
	PageQuery
	Name     string
	MenuType MenuType
	Status   Status
	ParentID string
}

// MenuRequest creates or edits a menu
type MenuRequest struct {
	Name          string   `json:"name,omitempty"`
	MenuType      MenuType `json:"menu_type,omitempty"`
	APIPath       string   `json:"api_path,omitempty"`
	APIPathMethod string   `json:"api_path_method,omitempty"`
	Order         int      `json:"order,omitempty"`
	ParentID      string   `json:"parent_id,omitempty"`
	Component     string   `json:"component,omitempty"`
	Status        Status   `json:"status,omitempty"`
	Remark        string   `json:"remark,omitempty"`
}

// OnlineUser is an active console session
type OnlineUser struct {
	ID                   string        `json:"id"`
	Nickname             string        `json:"nickname"`
	AccessIP             string        `json:"access_ip"`
	LastOperationTime    int64         `json:"last_operation_time"`
	OperationType        OperationType `json:"operation_type"`
	OS                   string        `json:"os,omitempty"`
	Platform             string        `json:"platform,omitempty"`
	BrowserName          string        `json:"browser_name,omitempty"`
	BrowserVersion       string        `json:"browser_version,omitempty"`
	BrowserEngineName    string        `json:"browser_engine_name,omitempty"`
	BrowserEngineVersion string        `json:"browser_engine_version,omitempty"`
}

// OnlineUserQuery filters the online user list
type OnlineUserQuery struct {
	PageQuery
	UserID    string
	AccessIP  string
	StartTime int64
	EndTime   int64
}

// OperationLog is an audit entry
type OperationLog struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id"`
	Nickname             string        `json:"nickname,omitempty"`
	AccessIP             string        `json:"access_ip"`
	OperationTime        int64         `json:"operation_time"`
	OperationType        OperationType `json:"operation_type"`
	OS                   string        `json:"os,omitempty"`
	Platform             string        `json:"platform,omitempty"`
	BrowserName          string        `json:"browser_name,omitempty"`
	BrowserVersion       string        `json:"browser_version,omitempty"`
	BrowserEngineName    string        `json:"browser_engine_name,omitempty"`
	BrowserEngineVersion string        `json:"browser_engine_version,omitempty"`
}

// OperationLogQuery filters the audit log
type OperationLogQuery struct {
	PageQuery
	UserID        string
	OperationType OperationType
	StartTime     int64
	EndTime       int64
}

// query accumulates non-zero parameters
type query url.Values

func (q query) str(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q query) num(key string, v int64) query {
	if v != 0 {
		url.Values(q).Set(key, strconv.FormatInt(v, 10))
	}
	return q
}

func (q query) page(p PageQuery) query {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	return q.num("page", int64(p.Page)).num("page_size", int64(p.PageSize))
}

func (q UserQuery) values(paged bool) url.Values {
	v := query{}
	if paged {
		v = v.page(q.PageQuery)
	}
	return url.Values(v.str("username", q.Username).
		str("nickname", q.Nickname).
		str("email", q.Email).
		str("role_id", q.RoleID).
		num("status", int64(q.Status)))
}

func (q RoleQuery) values(paged bool) url.Values {
	v := query{}
	if paged {
		v = v.page(q.PageQuery)
	}
	return url.Values(v.str("name", q.Name).num("status", int64(q.Status)))
}

func (q MenuQuery) values(paged bool) url.Values {
	v := query{}
	if paged {
		v = v.page(q.PageQuery)
	}
	return url.Values(v.str("name", q.Name).
		num("menu_type", int64(q.MenuType)).
		num("status", int64(q.Status)).
		str("parent_id", q.ParentID))
}

func (q OnlineUserQuery) values() url.Values {
	return url.Values(query{}.page(q.PageQuery).
		str("user_id", q.UserID).
		str("access_ip", q.AccessIP).
		num("start_time", q.StartTime).
		num("end_time", q.EndTime))
}

func (q OperationLogQuery) values() url.Values {
	return url.Values(query{}.page(q.PageQuery).
		str("user_id", q.UserID).
		num("operation_type", int64(q.OperationType)).
		num("start_time", q.StartTime).
		num("end_time", q.EndTime))
}
