package repository

import "errors"

// ErrDuplicateCode is returned by RoomRepository.Create when the generated
// room code collides with an existing room. The service layer retries with
// a fresh code on this error.
var ErrDuplicateCode = errors.New("room code already exists")
