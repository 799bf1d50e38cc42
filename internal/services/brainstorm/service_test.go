package brainstorm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"traveler/internal/canvas"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	errRepo  = errors.New("repository error")
	mockItem = mock.AnythingOfType("*brainstorm.Item")
)

// MockItemsRepo is a mock implementation of ItemsRepository
type MockItemsRepo struct {
	mock.Mock
}

func (m *MockItemsRepo) Create(ctx context.Context, item *Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemsRepo) ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*Item, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Item), args.Error(1)
}

func (m *MockItemsRepo) Positions(ctx context.Context, tripID bson.ObjectID) ([]canvas.Point, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]canvas.Point), args.Error(1)
}

func (m *MockItemsRepo) Update(ctx context.Context, itemID bson.ObjectID, patch UpdateItem) (*Item, error) {
	args := m.Called(ctx, itemID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockItemsRepo) UpdatePosition(ctx context.Context, itemID bson.ObjectID, x, y float64) (*Item, error) {
	args := m.Called(ctx, itemID, x, y)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockItemsRepo) Delete(ctx context.Context, itemID bson.ObjectID) (*Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

// MockGroupsRepo is a mock implementation of GroupsRepository
type MockGroupsRepo struct {
	mock.Mock
}

func (m *MockGroupsRepo) Create(ctx context.Context, group *Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupsRepo) ListByTrip(ctx context.Context, tripID bson.ObjectID) ([]*Group, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Group), args.Error(1)
}

func (m *MockGroupsRepo) Update(ctx context.Context, groupID bson.ObjectID, patch UpdateGroup) (*Group, error) {
	args := m.Called(ctx, groupID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *MockGroupsRepo) Delete(ctx context.Context, groupID bson.ObjectID) (*Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

// MockBus is a mock implementation of Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Broadcast(ctx context.Context, ev Event, origin ulid.ULID) {
	m.Called(ctx, ev, origin)
}

func newTestService(items *MockItemsRepo, groups *MockGroupsRepo, bus *MockBus) *Service {
	return NewService(items, groups, bus, silentLogger)
}

func testCreator() Creator {
	return Creator{ID: bson.NewObjectID(), Name: "Maya", Image: "uploads/maya.png"}
}

func f64(v float64) *float64 { return &v }

func TestServiceCreateItemPlacesAtAnchorOnEmptyBoard(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	items.On("Positions", mock.Anything, tripID).Return([]canvas.Point{}, nil)
	items.On("Create", mock.Anything, mockItem).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventItemCreated && ev.TripID == tripID
	}), ulid.ULID{}).Return()

	resp, err := svc.CreateItem(context.Background(), tripID, testCreator(), CreateItemRequest{Type: ItemTypeIdea, Title: "first"}, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.Item.PositionX)
	assert.Equal(t, 100.0, resp.Item.PositionY)
	items.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestServiceCreateItemSpiralsPastOccupiedAnchor(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	items.On("Positions", mock.Anything, tripID).Return([]canvas.Point{{X: 100, Y: 100}}, nil)
	items.On("Create", mock.Anything, mockItem).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.Anything, ulid.ULID{}).Return()

	resp, err := svc.CreateItem(context.Background(), tripID, testCreator(), CreateItemRequest{Type: ItemTypeNote}, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, 360.0, resp.Item.PositionX, "one card-plus-margin to the right")
	assert.Equal(t, 100.0, resp.Item.PositionY)
}

func TestServiceCreateItemExplicitPositionSkipsPlacer(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	// No Positions expectation: the placer must not run.
	items.On("Create", mock.Anything, mockItem).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.Anything, ulid.ULID{}).Return()

	req := CreateItemRequest{Type: ItemTypePlace, PositionX: f64(-5), PositionY: f64(42)}
	resp, err := svc.CreateItem(context.Background(), tripID, testCreator(), req, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, resp.Item.PositionX, "negative coordinates clamp to zero")
	assert.Equal(t, 42.0, resp.Item.PositionY)
	items.AssertExpectations(t)
}

func TestServiceCreateItemSanitizesText(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	items.On("Positions", mock.Anything, tripID).Return([]canvas.Point{}, nil)
	items.On("Create", mock.Anything, mockItem).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.Anything, ulid.ULID{}).Return()

	req := CreateItemRequest{Type: ItemTypeNote, Title: "<script>alert(1)</script>Onsen day"}
	resp, err := svc.CreateItem(context.Background(), tripID, testCreator(), req, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, "Onsen day", resp.Item.Title)
}

func TestServiceCreateItemRepoFailure(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	items.On("Positions", mock.Anything, tripID).Return([]canvas.Point{}, nil)
	items.On("Create", mock.Anything, mockItem).Return(errRepo)

	_, err := svc.CreateItem(context.Background(), tripID, testCreator(), CreateItemRequest{Type: ItemTypeIdea}, ulid.ULID{})
	assert.ErrorIs(t, err, ErrCreateItem)
	bus.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceMoveItemClampsAndBroadcastsMinimalPayload(t *testing.T) {
	tripID := bson.NewObjectID()
	itemID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)
	origin := ulid.Make()

	moved := &Item{ID: itemID, TripID: tripID, Type: ItemTypePlace, Title: "kept", PositionX: 0, PositionY: 25}
	items.On("UpdatePosition", mock.Anything, itemID, 0.0, 25.0).Return(moved, nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventItemMoved &&
			ev.Item.ID == itemID &&
			ev.Item.Title == "" && // minimal payload, no full fields
			ev.Item.PositionY == 25
	}), origin).Return()

	resp, err := svc.MoveItem(context.Background(), itemID, MoveItemRequest{PositionX: -10, PositionY: 25}, origin)
	require.NoError(t, err)
	assert.Equal(t, moved, resp.Item)
	items.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestServiceMoveItemNotFound(t *testing.T) {
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)
	itemID := bson.NewObjectID()

	items.On("UpdatePosition", mock.Anything, itemID, 1.0, 2.0).Return(nil, ErrItemNotFound)

	_, err := svc.MoveItem(context.Background(), itemID, MoveItemRequest{PositionX: 1, PositionY: 2}, ulid.ULID{})
	assert.ErrorIs(t, err, ErrItemNotFound)
	bus.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceUpdateItem(t *testing.T) {
	tripID := bson.NewObjectID()
	itemID := bson.NewObjectID()

	tests := []struct {
		name    string
		setup   func(*MockItemsRepo, *MockBus)
		wantErr error
	}{
		{
			name: "successful update broadcasts",
			setup: func(items *MockItemsRepo, bus *MockBus) {
				updated := &Item{ID: itemID, TripID: tripID, Type: ItemTypeLink}
				items.On("Update", mock.Anything, itemID, mock.AnythingOfType("brainstorm.UpdateItem")).Return(updated, nil)
				bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
					return ev.Type == EventItemUpdated && ev.Item == updated
				}), ulid.ULID{}).Return()
			},
		},
		{
			name: "not found",
			setup: func(items *MockItemsRepo, bus *MockBus) {
				items.On("Update", mock.Anything, itemID, mock.AnythingOfType("brainstorm.UpdateItem")).Return(nil, ErrItemNotFound)
			},
			wantErr: ErrItemNotFound,
		},
		{
			name: "repo failure",
			setup: func(items *MockItemsRepo, bus *MockBus) {
				items.On("Update", mock.Anything, itemID, mock.AnythingOfType("brainstorm.UpdateItem")).Return(nil, errRepo)
			},
			wantErr: ErrUpdateItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := &MockItemsRepo{}
			bus := &MockBus{}
			svc := newTestService(items, &MockGroupsRepo{}, bus)
			tt.setup(items, bus)

			title := "updated"
			_, err := svc.UpdateItem(context.Background(), itemID, UpdateItem{Title: &title}, ulid.ULID{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				bus.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			bus.AssertExpectations(t)
		})
	}
}

func TestServiceDeleteItemBroadcastsMinimalPayload(t *testing.T) {
	tripID := bson.NewObjectID()
	itemID := bson.NewObjectID()
	items := &MockItemsRepo{}
	bus := &MockBus{}
	svc := newTestService(items, &MockGroupsRepo{}, bus)

	items.On("Delete", mock.Anything, itemID).Return(&Item{ID: itemID, TripID: tripID, Title: "gone"}, nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventItemDeleted && ev.Item.ID == itemID && ev.Item.Title == ""
	}), ulid.ULID{}).Return()

	err := svc.DeleteItem(context.Background(), itemID, ulid.ULID{})
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestServiceCreateGroupDefaults(t *testing.T) {
	tripID := bson.NewObjectID()
	groups := &MockGroupsRepo{}
	bus := &MockBus{}
	svc := newTestService(&MockItemsRepo{}, groups, bus)

	groups.On("Create", mock.Anything, mock.AnythingOfType("*brainstorm.Group")).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventGroupCreated
	}), ulid.ULID{}).Return()

	resp, err := svc.CreateGroup(context.Background(), tripID, CreateGroupRequest{PositionX: 400, PositionY: 300}, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, DefaultGroupWidth, resp.Group.Width)
	assert.Equal(t, DefaultGroupHeight, resp.Group.Height)
	assert.Equal(t, DefaultGroupColor, resp.Group.Color)
	assert.Equal(t, 400.0, resp.Group.PositionX)
}

func TestServiceCreateGroupExplicitGeometry(t *testing.T) {
	tripID := bson.NewObjectID()
	groups := &MockGroupsRepo{}
	bus := &MockBus{}
	svc := newTestService(&MockItemsRepo{}, groups, bus)

	groups.On("Create", mock.Anything, mock.AnythingOfType("*brainstorm.Group")).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.Anything, ulid.ULID{}).Return()

	req := CreateGroupRequest{Width: f64(500), Height: f64(120), Color: "#FF8800"}
	resp, err := svc.CreateGroup(context.Background(), tripID, req, ulid.ULID{})
	require.NoError(t, err)
	assert.Equal(t, 500.0, resp.Group.Width)
	assert.Equal(t, 120.0, resp.Group.Height)
	assert.Equal(t, "#FF8800", resp.Group.Color)
}

func TestServiceDeleteGroup(t *testing.T) {
	tripID := bson.NewObjectID()
	groupID := bson.NewObjectID()
	groups := &MockGroupsRepo{}
	bus := &MockBus{}
	svc := newTestService(&MockItemsRepo{}, groups, bus)

	groups.On("Delete", mock.Anything, groupID).Return(&Group{ID: groupID, TripID: tripID}, nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == EventGroupDeleted && ev.Group.ID == groupID
	}), ulid.ULID{}).Return()

	require.NoError(t, svc.DeleteGroup(context.Background(), groupID, ulid.ULID{}))
	bus.AssertExpectations(t)
}

func TestServiceListItems(t *testing.T) {
	tripID := bson.NewObjectID()
	items := &MockItemsRepo{}
	svc := newTestService(items, &MockGroupsRepo{}, &MockBus{})

	stored := []*Item{{ID: bson.NewObjectID(), TripID: tripID, Type: ItemTypeIdea}}
	items.On("ListByTrip", mock.Anything, tripID).Return(stored, nil)

	resp, err := svc.ListItems(context.Background(), tripID)
	require.NoError(t, err)
	assert.Equal(t, stored, resp.Items)

	items2 := &MockItemsRepo{}
	svc2 := newTestService(items2, &MockGroupsRepo{}, &MockBus{})
	items2.On("ListByTrip", mock.Anything, tripID).Return(nil, errRepo)
	_, err = svc2.ListItems(context.Background(), tripID)
	assert.ErrorIs(t, err, ErrListItems)
}
