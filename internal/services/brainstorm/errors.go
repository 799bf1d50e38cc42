package brainstorm

import "errors"

// ErrItemNotFound - item not found in DB
var ErrItemNotFound = errors.New("item not found")

// ErrGroupNotFound - group not found in DB
var ErrGroupNotFound = errors.New("group not found")

// ErrCreateItem is returned when item creation fails.
var ErrCreateItem = errors.New("failed to create item")

// ErrUpdateItem is returned when item update fails.
var ErrUpdateItem = errors.New("failed to update item")

// ErrMoveItem is returned when an item position update fails.
var ErrMoveItem = errors.New("failed to move item")

// ErrDeleteItem is returned when item deletion fails.
var ErrDeleteItem = errors.New("failed to delete item")

// ErrListItems is returned when listing a trip's items fails.
var ErrListItems = errors.New("failed to list items")

// ErrCreateGroup is returned when group creation fails.
var ErrCreateGroup = errors.New("failed to create group")

// ErrUpdateGroup is returned when group update fails.
var ErrUpdateGroup = errors.New("failed to update group")

// ErrDeleteGroup is returned when group deletion fails.
var ErrDeleteGroup = errors.New("failed to delete group")

// ErrListGroups is returned when listing a trip's groups fails.
var ErrListGroups = errors.New("failed to list groups")

// ErrCreateItemsRepo is returned when the items repository cannot be built.
var ErrCreateItemsRepo = errors.New("failed to create items repository")

// ErrCreateGroupsRepo is returned when the groups repository cannot be built.
var ErrCreateGroupsRepo = errors.New("failed to create groups repository")
