package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/geocoder89/userdesk/internal/domain/user"
)

// Gateway is the slice of the users API the board needs.
type Gateway interface {
	ListUsers(ctx context.Context, page, limit int) (user.Page, error)
	CreateUser(ctx context.Context, req user.CreateRequest) (user.User, error)
	UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error)
	DeleteUser(ctx context.Context, id int64) (user.DeleteResult, error)
}

// Board is the user management view of one browser session. The mutex is
// never held across a remote call, so a slow request does not block others;
// loads are sequenced and only the latest issued one may apply its result.
type Board struct {
	mu    sync.Mutex
	state State
	seq   uint64

	gw  Gateway
	log *slog.Logger
}

func NewBoard(gw Gateway, pageSize int, log *slog.Logger) *Board {
	if log == nil {
		log = slog.Default()
	}
	return &Board{
		state: NewState(pageSize),
		gw:    gw,
		log:   log,
	}
}

// State returns a snapshot; callers may keep it.
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// TakeNotice returns the pending notice and clears it.
func (b *Board) TakeNotice() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.state.Notice
	if n != "" {
		b.dispatch(NoticeCleared{})
	}
	return n
}

// Load fetches page cursor from the users API and, if no newer load was
// issued in the meantime, replaces the loaded page with it.
func (b *Board) Load(ctx context.Context, cursor int) (State, error) {
	if cursor < 0 {
		return b.State(), b.fail(ctx, "load users", ErrPageOutOfRange)
	}

	b.mu.Lock()
	b.seq++
	seq := b.seq
	size := b.state.PageSize
	b.mu.Unlock()

	page, err := b.gw.ListUsers(ctx, cursor, size)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		b.log.DebugContext(ctx, "board.load_discarded",
			slog.Int("cursor", cursor),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", b.seq),
		)
		return b.state.Clone(), ErrStaleResponse
	}

	if err != nil {
		return b.state.Clone(), b.failLocked(ctx, "load users", err)
	}

	b.dispatch(UsersLoaded{Cursor: cursor, Page: page})
	return b.state.Clone(), nil
}

// Paginate moves to page if it exists and reloads. The cursor is left
// unchanged when page is out of range or the load fails.
func (b *Board) Paginate(ctx context.Context, page int) (State, error) {
	b.mu.Lock()
	count := b.state.PageCount()
	if page < 0 || page >= count {
		err := b.failLocked(ctx, "change page", ErrPageOutOfRange)
		s := b.state.Clone()
		b.mu.Unlock()
		return s, err
	}
	b.mu.Unlock()

	return b.Load(ctx, page)
}

// AddUser creates the placeholder user and appends it to the loaded page.
func (b *Board) AddUser(ctx context.Context) (user.User, error) {
	created, err := b.gw.CreateUser(ctx, user.Placeholder())

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		return user.User{}, b.failLocked(ctx, "add user", err)
	}

	b.dispatch(UserAdded{User: created})
	return created, nil
}

// EditUser opens the edit session for a loaded user, replacing any open one.
func (b *Board) EditUser(ctx context.Context, id int64) (EditSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.state.Find(id)
	if !ok {
		return EditSession{}, b.failLocked(ctx, "edit user", ErrUserNotLoaded)
	}

	b.dispatch(EditOpened{User: u})
	return *b.state.Edit, nil
}

// UpdatePersonalInfo changes the draft only. Nothing is sent until SaveEdit.
func (b *Board) UpdatePersonalInfo(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Edit == nil {
		return ErrNoEditSession
	}

	b.dispatch(DraftChanged{Text: text})
	return nil
}

// SaveEdit sends the draft personal info. On success the loaded entry is
// replaced with the server's copy and the session closes; on failure the
// session stays open with its draft.
func (b *Board) SaveEdit(ctx context.Context) (user.User, error) {
	b.mu.Lock()
	if b.state.Edit == nil {
		b.mu.Unlock()
		return user.User{}, ErrNoEditSession
	}
	edit := *b.state.Edit
	b.mu.Unlock()

	draft := edit.Draft
	updated, err := b.gw.UpdateUser(ctx, edit.UserID, user.UpdateRequest{PersonalInfo: &draft})

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		return user.User{}, b.failLocked(ctx, "save changes", err)
	}

	b.dispatch(UserUpdated{User: updated})
	return updated, nil
}

func (b *Board) CancelEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dispatch(EditClosed{})
}

// DeleteUser deletes id remotely and drops it from the loaded page. An id that
// is not loaded is still sent; locally that is a no-op.
func (b *Board) DeleteUser(ctx context.Context, id int64) (user.DeleteResult, error) {
	res, err := b.gw.DeleteUser(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		return user.DeleteResult{}, b.failLocked(ctx, "delete user", err)
	}

	b.dispatch(UserDeleted{ID: id})
	return res, nil
}

// dispatch must be called with mu held.
func (b *Board) dispatch(a Action) {
	b.state = Reduce(b.state, a)
}

func (b *Board) fail(ctx context.Context, action string, err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failLocked(ctx, action, err)
}

func (b *Board) failLocked(ctx context.Context, action string, err error) error {
	b.log.WarnContext(ctx, "board.action_failed",
		slog.String("action", action),
		slog.Int("cursor", b.state.Cursor),
		slog.String("err", err.Error()),
	)
	b.dispatch(NoticeRaised{Text: noticeFor(action, err)})
	return err
}

func noticeFor(action string, err error) string {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound {
		return "Could not " + action + ": that user no longer exists."
	}

	var remote interface{ Message() string }
	if errors.As(err, &remote) {
		return "Could not " + action + ": " + remote.Message()
	}

	switch {
	case errors.Is(err, ErrUserNotLoaded):
		return "Could not " + action + ": that user is not on this page."
	case errors.Is(err, ErrPageOutOfRange):
		return "Could not " + action + ": that page does not exist."
	case errors.Is(err, context.DeadlineExceeded):
		return "Could not " + action + ": the users service took too long to answer."
	}

	return "Could not " + action + ". Please try again."
}
