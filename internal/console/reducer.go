package console

import "github.com/geocoder89/userdesk/internal/domain/user"

// Action is a state transition. Reduce is the only place State changes.
type Action interface {
	action()
}

type UsersLoaded struct {
	Cursor int
	Page   user.Page
}

type UserAdded struct{ User user.User }

type UserUpdated struct{ User user.User }

type UserDeleted struct{ ID int64 }

type EditOpened struct{ User user.User }

type DraftChanged struct{ Text string }

type EditClosed struct{}

type NoticeRaised struct{ Text string }

type NoticeCleared struct{}

func (UsersLoaded) action()   {}
func (UserAdded) action()     {}
func (UserUpdated) action()   {}
func (UserDeleted) action()   {}
func (EditOpened) action()    {}
func (DraftChanged) action()  {}
func (EditClosed) action()    {}
func (NoticeRaised) action()  {}
func (NoticeCleared) action() {}

// Reduce returns the state after applying a. s is never modified.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a := a.(type) {
	case UsersLoaded:
		next.Users = append([]user.User{}, a.Page.Users...)
		next.Total = a.Page.Total
		next.Cursor = a.Cursor
		next.Loaded = true

	case UserAdded:
		next.Users = append(next.Users, a.User)
		next.Total++

	case UserUpdated:
		for i := range next.Users {
			if next.Users[i].ID == a.User.ID {
				next.Users[i] = a.User
			}
		}
		if next.Edit != nil && next.Edit.UserID == a.User.ID {
			next.Edit = nil
		}

	case UserDeleted:
		idx := -1
		for i, u := range next.Users {
			if u.ID == a.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return next
		}
		next.Users = append(next.Users[:idx], next.Users[idx+1:]...)
		if next.Total > 0 {
			next.Total--
		}
		if next.Edit != nil && next.Edit.UserID == a.ID {
			next.Edit = nil
		}

	case EditOpened:
		next.Edit = &EditSession{
			UserID: a.User.ID,
			Name:   a.User.Name,
			Draft:  a.User.PersonalInfo,
		}

	case DraftChanged:
		if next.Edit != nil {
			next.Edit.Draft = a.Text
		}

	case EditClosed:
		next.Edit = nil

	case NoticeRaised:
		next.Notice = a.Text

	case NoticeCleared:
		next.Notice = ""
	}

	return next
}
