package service

import "errors"

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrPathOutsideRoot    = errors.New("path outside notes root")
	ErrBackupRunning      = errors.New("backup already running")

	ErrConnectionsUnreadable = errors.New("saved connections are unreadable")
)
