// Package console holds the per-browser view state of the admin console: the
// loaded page of users, the page cursor, the edit session and the one-shot
// notice shown after a failed action.
package console

import "github.com/geocoder89/userdesk/internal/domain/user"

// EditSession is the open edit dialog: which user and the unsaved draft of
// their personal info.
type EditSession struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Draft  string `json:"draft"`
}

type State struct {
	Users    []user.User  `json:"users"`
	Cursor   int          `json:"cursor"`
	Total    int          `json:"total"`
	PageSize int          `json:"pageSize"`
	Edit     *EditSession `json:"edit,omitempty"`
	Notice   string       `json:"notice,omitempty"`
	Loaded   bool         `json:"loaded"`
}

func NewState(pageSize int) State {
	if pageSize < 1 {
		pageSize = 1
	}
	return State{Users: []user.User{}, PageSize: pageSize}
}

func (s State) PageCount() int {
	return PageCount(s.Total, s.PageSize)
}

func (s State) Find(id int64) (user.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return user.User{}, false
}

// Clone returns a copy that shares nothing mutable with s.
func (s State) Clone() State {
	out := s
	out.Users = append([]user.User(nil), s.Users...)
	if s.Edit != nil {
		e := *s.Edit
		out.Edit = &e
	}
	return out
}
