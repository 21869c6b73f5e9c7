package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"

	"github.com/sirupsen/logrus"
)

// RoomService manages diagram rooms and their durable attendance.
type RoomService struct {
	roomRepo       repository.RoomRepository
	attendanceRepo repository.AttendanceRepository
	userRepo       repository.UserRepository
	tx             repository.Transactor
}

func NewRoomService(
	roomRepo repository.RoomRepository,
	attendanceRepo repository.AttendanceRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
) *RoomService {
	if roomRepo == nil || attendanceRepo == nil || userRepo == nil || tx == nil {
		panic("all dependencies must be non-nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo, attendanceRepo: attendanceRepo, userRepo: userRepo, tx: tx}
}

// CreateMeeting creates a room hosted by the user with userID and records
// the host's attendance.
func (s *RoomService) CreateMeeting(ctx context.Context, userID uint, name string) (*domain.Room, error) {
	if userID == 0 || strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.createHosted(ctx, user, name)
}

// CreateRoom is CreateMeeting keyed by the host's email.
func (s *RoomService) CreateRoom(ctx context.Context, hostEmail, name string) (*domain.Room, error) {
	if strings.TrimSpace(hostEmail) == "" || strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.userByEmail(ctx, hostEmail)
	if err != nil {
		return nil, err
	}
	return s.createHosted(ctx, user, name)
}

func (s *RoomService) createHosted(ctx context.Context, host *domain.User, name string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": host.ID, "room": name})
	room := &domain.Room{Name: name, HostEmail: host.Email}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.roomRepo.Create(ctx, room); err != nil {
			return err
		}
		return s.attendanceRepo.Add(ctx, host.ID, room.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("CreateRoom: name already taken")
			return nil, ErrRoomNameTaken
		}
		logCtx.WithError(err).Error("CreateRoom: failed to persist room")
		return nil, ErrInternalServer
	}
	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	return room, nil
}

// JoinMeeting records the user's attendance unless already present and
// returns the room with its collaborator list.
func (s *RoomService) JoinMeeting(ctx context.Context, userID uint, name string) (*domain.Room, []domain.Collaborator, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room": name})
	if userID == 0 || strings.TrimSpace(name) == "" {
		return nil, nil, ErrInvalidInput
	}
	room, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		present, err := s.attendanceRepo.Exists(ctx, userID, room.ID)
		if err != nil || present {
			return err
		}
		return s.attendanceRepo.Add(ctx, userID, room.ID)
	})
	if err != nil {
		logCtx.WithError(err).Error("JoinMeeting: failed to record attendance")
		return nil, nil, ErrInternalServer
	}

	collaborators, err := s.attendanceRepo.Collaborators(ctx, room.ID)
	if err != nil {
		logCtx.WithError(err).Error("JoinMeeting: failed to load collaborators")
		return nil, nil, ErrInternalServer
	}
	logCtx.WithField("room_id", room.ID).Info("User joined room")
	return room, collaborators, nil
}

// Collaborators returns the emails behind every attendance row of the room.
func (s *RoomService) Collaborators(ctx context.Context, name string) ([]domain.Collaborator, error) {
	room, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	list, err := s.attendanceRepo.Collaborators(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", name).Error("Collaborators: repository error")
		return nil, ErrInternalServer
	}
	return list, nil
}

// Attendees is Collaborators that fails with ErrNoAttendees on an empty room.
func (s *RoomService) Attendees(ctx context.Context, name string) ([]domain.Collaborator, error) {
	list, err := s.Collaborators(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoAttendees
	}
	return list, nil
}

func (s *RoomService) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	logCtx := logrus.WithField("room", name)
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	room, err := s.roomRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("FindByName: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("FindByName: repository error")
		return nil, ErrInternalServer
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// SaveDiagram overwrites the stored diagram of the room. The last write wins.
func (s *RoomService) SaveDiagram(ctx context.Context, name, diagram string) error {
	logCtx := logrus.WithField("room", name)
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if err := s.roomRepo.UpdateDiagram(ctx, name, diagram); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("SaveDiagram: room not found")
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("SaveDiagram: repository error")
		return ErrInternalServer
	}
	logCtx.WithField("bytes", len(diagram)).Debug("Diagram saved")
	return nil
}

// AddAttendance appends an attendance row. Duplicates are allowed.
func (s *RoomService) AddAttendance(ctx context.Context, email, roomName string) error {
	user, room, err := s.userAndRoom(ctx, email, roomName)
	if err != nil {
		return err
	}
	if err := s.attendanceRepo.Add(ctx, user.ID, room.ID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "room_id": room.ID}).Error("AddAttendance: repository error")
		return ErrInternalServer
	}
	return nil
}

// RemoveAttendance deletes every attendance row of the pair.
func (s *RoomService) RemoveAttendance(ctx context.Context, email, roomName string) error {
	user, room, err := s.userAndRoom(ctx, email, roomName)
	if err != nil {
		return err
	}
	n, err := s.attendanceRepo.Remove(ctx, user.ID, room.ID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "room_id": room.ID}).Error("RemoveAttendance: repository error")
		return ErrInternalServer
	}
	if n == 0 {
		return ErrAttendanceNotFound
	}
	return nil
}

// IsHost returns ErrNotHost unless email is the room's host.
func (s *RoomService) IsHost(ctx context.Context, email, roomName string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	room, err := s.FindByName(ctx, roomName)
	if err != nil {
		return err
	}
	if room.HostEmail != email {
		return ErrNotHost
	}
	return nil
}

// DeleteIfEmpty removes the room when nobody has an attendance row in it.
// The count and the delete run in one transaction.
func (s *RoomService) DeleteIfEmpty(ctx context.Context, name string) (bool, error) {
	logCtx := logrus.WithField("room", name)
	room, err := s.FindByName(ctx, name)
	if err != nil {
		return false, err
	}

	deleted := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.attendanceRepo.Count(ctx, room.ID)
		if err != nil || n > 0 {
			return err
		}
		if err := s.roomRepo.Delete(ctx, room.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		logCtx.WithError(err).Error("DeleteIfEmpty: repository error")
		return false, ErrInternalServer
	}
	logCtx.WithField("deleted", deleted).Info("DeleteIfEmpty finished")
	return deleted, nil
}

func (s *RoomService) userAndRoom(ctx context.Context, email, roomName string) (*domain.User, *domain.Room, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(roomName) == "" {
		return nil, nil, ErrInvalidInput
	}
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.FindByName(ctx, roomName)
	if err != nil {
		return nil, nil, err
	}
	return user, room, nil
}

func (s *RoomService) userByID(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	return checkUser(user, err, logrus.WithField("user_id", id))
}

func (s *RoomService) userByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	return checkUser(user, err, logrus.WithField("email", email))
}

func checkUser(user *domain.User, err error, logCtx *logrus.Entry) (*domain.User, error) {
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("User not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("User lookup failed")
		return nil, ErrInternalServer
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
