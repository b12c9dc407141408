// ABOUTME: Seeded users, roles, menus, sessions and audit entries for the mock backend
// ABOUTME: Includes the list filtering and paging shared by the page endpoints

package mockserver

import (
	"strconv"
	"strings"
	"time"

	"github.com/lyonmu/quebec/console/internal/client"
)

type account struct {
	user     client.User
	password string // hex SHA-256 of the plain password
}

type dataset struct {
	accounts []*account
	roles    []client.Role
	menus    []client.MenuTreeNode
	online   []client.OnlineUser
	logs     []client.OperationLog
	nextLog  int
}

func seed(username, password string, now time.Time) *dataset {
	d := &dataset{
		roles: []client.Role{
			{ID: "1", Name: "super", Remark: "Full access", Status: client.StatusEnabled, System: client.StatusEnabled, Users: 1},
			{ID: "2", Name: "operator", Remark: "Gateway operations", Status: client.StatusEnabled, Users: 2},
			{ID: "3", Name: "viewer", Remark: "Read only", Status: client.StatusDisabled, Users: 1},
		},
	}

	add := func(id, name, nick, email, roleID, roleName, pw string, status client.Status) {
		d.accounts = append(d.accounts, &account{
			user: client.User{
				ID: id, Username: name, Nickname: nick, Email: email,
				RoleID: roleID, RoleName: roleName, Status: status,
				CreatedAt: now.Add(-30 * 24 * time.Hour).Unix(),
			},
			password: client.HashCredential(pw),
		})
	}
	add("1", username, "Administrator", "admin@quebec.local", "1", "super", password, client.StatusEnabled)
	add("2", "operator", "Gateway Operator", "ops@quebec.local", "2", "operator", "operator", client.StatusEnabled)
	add("3", "editor", "Route Editor", "editor@quebec.local", "2", "operator", "editor", client.StatusEnabled)
	add("4", "viewer", "Read Only", "viewer@quebec.local", "3", "viewer", "viewer", client.StatusDisabled)

	d.menus = []client.MenuTreeNode{
		{ID: "10", Name: "Dashboard", MenuType: client.MenuPage, Order: 1, Component: "DASHBOARD", Status: client.StatusEnabled},
		{ID: "20", Name: "Gateway", MenuType: client.MenuDirectory, Order: 2, Status: client.StatusEnabled, Children: []client.MenuTreeNode{
			{ID: "21", Name: "Nodes", MenuType: client.MenuPage, Order: 1, Component: "NODES", Status: client.StatusEnabled},
			{ID: "22", Name: "L4 Proxies", MenuType: client.MenuPage, Order: 2, Component: "PROXY_L4", Status: client.StatusEnabled},
			{ID: "23", Name: "L7 Routes", MenuType: client.MenuPage, Order: 3, Component: "PROXY_L7", Status: client.StatusEnabled},
			{ID: "24", Name: "Certificates", MenuType: client.MenuPage, Order: 4, Component: "CERTS", Status: client.StatusEnabled},
		}},
		{ID: "30", Name: "System", MenuType: client.MenuDirectory, Order: 3, Status: client.StatusEnabled, Children: []client.MenuTreeNode{
			{ID: "31", Name: "Users", MenuType: client.MenuPage, Order: 1, Component: "SYSTEM_USERS", Status: client.StatusEnabled, Children: []client.MenuTreeNode{
				{ID: "311", Name: "Create user", MenuType: client.MenuButton, APIPath: "/v1/system/user", APIPathMethod: "POST", Order: 1, Status: client.StatusEnabled},
				{ID: "312", Name: "Delete user", MenuType: client.MenuButton, APIPath: "/v1/system/user/:id", APIPathMethod: "DELETE", Order: 2, Status: client.StatusEnabled},
			}},
			{ID: "32", Name: "Online Users", MenuType: client.MenuPage, Order: 2, Component: "SYSTEM_ONLINE_USERS", Status: client.StatusEnabled},
			{ID: "33", Name: "Roles", MenuType: client.MenuPage, Order: 3, Component: "SYSTEM_ROLES", Status: client.StatusEnabled},
			{ID: "34", Name: "Menus", MenuType: client.MenuPage, Order: 4, Component: "SYSTEM_MENUS", Status: client.StatusEnabled},
			{ID: "35", Name: "Audit Logs", MenuType: client.MenuPage, Order: 5, Component: "SYSTEM_LOGS", Status: client.StatusDisabled},
		}},
	}

	d.online = []client.OnlineUser{
		{ID: "2", Nickname: "Gateway Operator", AccessIP: "10.0.1.15", LastOperationTime: now.Add(-5 * time.Minute).Unix(),
			OperationType: client.OperationLogin, OS: "macOS 14", Platform: "Desktop", BrowserName: "Firefox", BrowserVersion: "128.0", BrowserEngineName: "Gecko"},
		{ID: "3", Nickname: "Route Editor", AccessIP: "10.0.2.40", LastOperationTime: now.Add(-42 * time.Minute).Unix(),
			OperationType: client.OperationRoleUpdate, OS: "Ubuntu 22.04", Platform: "Desktop", BrowserName: "Chrome", BrowserVersion: "126.0", BrowserEngineName: "Blink"},
	}

	ops := []client.OperationType{
		client.OperationLogin, client.OperationUserCreate, client.OperationRoleUpdate,
		client.OperationMenuEnable, client.OperationPasswordChange, client.OperationLogout,
	}
	for i := 0; i < 24; i++ {
		acc := d.accounts[i%len(d.accounts)]
		d.appendLog(acc.user, "10.0.0."+strconv.Itoa(10+i), ops[i%len(ops)], now.Add(-time.Duration(i)*time.Hour))
	}
	return d
}

func (d *dataset) appendLog(u client.User, ip string, op client.OperationType, at time.Time) {
	d.nextLog++
	entry := client.OperationLog{
		ID:            strconv.Itoa(d.nextLog),
		UserID:        u.ID,
		Nickname:      u.Nickname,
		AccessIP:      ip,
		OperationTime: at.Unix(),
		OperationType: op,
		OS:            "Linux",
		Platform:      "Terminal",
		BrowserName:   "quebec",
	}
	// newest first
	d.logs = append([]client.OperationLog{entry}, d.logs...)
}

func (d *dataset) accountByHash(usernameHash string) *account {
	for _, a := range d.accounts {
		if client.HashCredential(a.user.Username) == usernameHash {
			return a
		}
	}
	return nil
}

func (d *dataset) accountByID(id string) *account {
	for _, a := range d.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (d *dataset) roleStatus(id string) client.Status {
	for _, r := range d.roles {
		if r.ID == id {
			return r.Status
		}
	}
	return 0
}

func (d *dataset) markOnline(u client.User, ip string, op client.OperationType, at time.Time) {
	for i := range d.online {
		if d.online[i].ID == u.ID {
			d.online[i].AccessIP = ip
			d.online[i].LastOperationTime = at.Unix()
			d.online[i].OperationType = op
			return
		}
	}
	d.online = append(d.online, client.OnlineUser{
		ID: u.ID, Nickname: u.Nickname, AccessIP: ip, LastOperationTime: at.Unix(),
		OperationType: op, OS: "Linux", Platform: "Terminal", BrowserName: "quebec",
	})
}

func (d *dataset) markOffline(userID string) bool {
	for i := range d.online {
		if d.online[i].ID == userID {
			d.online = append(d.online[:i], d.online[i+1:]...)
			return true
		}
	}
	return false
}

func (d *dataset) users(q map[string]string) []client.User {
	out := make([]client.User, 0, len(d.accounts))
	for _, a := range d.accounts {
		u := a.user
		if !contains(u.Username, q["username"]) || !contains(u.Nickname, q["nickname"]) ||
			!contains(u.Email, q["email"]) || !equals(u.RoleID, q["role_id"]) ||
			!equals(strconv.Itoa(int(u.Status)), q["status"]) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (d *dataset) rolesMatching(q map[string]string) []client.Role {
	out := make([]client.Role, 0, len(d.roles))
	for _, r := range d.roles {
		if !contains(r.Name, q["name"]) || !equals(strconv.Itoa(int(r.Status)), q["status"]) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (d *dataset) onlineMatching(q map[string]string) []client.OnlineUser {
	out := make([]client.OnlineUser, 0, len(d.online))
	for _, o := range d.online {
		if !equals(o.ID, q["user_id"]) || !contains(o.AccessIP, q["access_ip"]) ||
			!within(o.LastOperationTime, q["start_time"], q["end_time"]) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (d *dataset) logsMatching(q map[string]string) []client.OperationLog {
	out := make([]client.OperationLog, 0, len(d.logs))
	for _, l := range d.logs {
		if !equals(l.UserID, q["user_id"]) || !equals(strconv.Itoa(int(l.OperationType)), q["operation_type"]) ||
			!within(l.OperationTime, q["start_time"], q["end_time"]) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func contains(value, filter string) bool {
	return filter == "" || strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

func equals(value, filter string) bool {
	return filter == "" || value == filter
}

func within(ts int64, start, end string) bool {
	if s, err := strconv.ParseInt(start, 10, 64); err == nil && ts < s {
		return false
	}
	if e, err := strconv.ParseInt(end, 10, 64); err == nil && ts > e {
		return false
	}
	return true
}

// paginate slices items per the page and page_size parameters
func paginate[T any](items []T, q map[string]string) client.Page[T] {
	page, _ := strconv.Atoi(q["page"])
	size, _ := strconv.Atoi(q["page_size"])
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return client.Page[T]{Items: items[start:end], Total: len(items), Page: page, PageSize: size}
}
