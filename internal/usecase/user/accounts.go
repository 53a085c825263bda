package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
)

type SignInUseCase struct {
	store repository.Store
}

func NewSignInUseCase(store repository.Store) *SignInUseCase {
	return &SignInUseCase{store: store}
}

var errEmailTaken = apperror.New(apperror.ErrCodeConflict, "email привязан к другому аккаунту")

// Execute создаёт пользователя при первом входе и обновляет профиль при последующих.
// userID — subject токена провайдера, он же id пользователя. Второй результат
// сообщает, был ли пользователь создан.
func (uc *SignInUseCase) Execute(ctx context.Context, userID uuid.UUID, identity entity.Identity) (*entity.User, bool, error) {
	fresh, err := entity.NewUserFromIdentity(identity)
	if err != nil {
		return nil, false, err
	}
	if userID != uuid.Nil {
		fresh.ID = userID
	}

	var (
		result  *entity.User
		created bool
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.LockUserByEmail(ctx, fresh.Email)
		switch {
		case err == nil:
			if existing.ID != fresh.ID && userID != uuid.Nil {
				return errEmailTaken
			}
			if existing.IsBanned {
				return apperror.ErrForbidden
			}
			existing.Touch(identity)
			result = existing
			return tx.UpdateUser(ctx, existing)
		case apperror.IsNotFound(err):
			result, created = fresh, true
			return tx.CreateUser(ctx, fresh)
		default:
			return err
		}
	})

	entry := logger.Log.WithField("email", fresh.Email)
	if err != nil {
		logger.Failure(entry, err, "user: вход отклонён")
		return nil, false, err
	}
	if created {
		entry.WithField("user_id", result.ID).Info("user: зарегистрирован новый пользователь")
	}
	return result, created, nil
}

type GetProfileUseCase struct {
	users repository.UserRepository
}

func NewGetProfileUseCase(users repository.UserRepository) *GetProfileUseCase {
	return &GetProfileUseCase{users: users}
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return uc.users.FindByID(ctx, userID)
}

type BanCommand struct {
	Actor    authz.Actor
	TargetID uuid.UUID
	Reason   string
}

type BanUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewBanUseCase(store repository.Store, notifier notification.Notifier) *BanUseCase {
	return &BanUseCase{store: store, notifier: notifier}
}

func (uc *BanUseCase) Execute(ctx context.Context, cmd BanCommand) (*entity.User, error) {
	entry := logger.Log.WithFields(logrus.Fields{"target_id": cmd.TargetID, "actor_id": cmd.Actor.UserID})
	if err := authz.RequireModerator(cmd.Actor); err != nil {
		logger.Failure(entry, err, "user: блокировка недоступна")
		return nil, err
	}
	if cmd.Actor.UserID == cmd.TargetID {
		return nil, apperror.ErrNotAuthorized
	}

	var (
		outbox notification.Outbox
		target *entity.User
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		target, err = tx.LockUser(ctx, cmd.TargetID)
		if err != nil {
			return err
		}
		if err := target.Ban(cmd.Reason); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, target); err != nil {
			return err
		}
		action := entity.NewAdminAction(cmd.Actor.UserID, entity.AdminActionBanUser, "user", target.ID,
			map[string]string{"reason": *target.BanReason})
		if err := tx.RecordAdminAction(ctx, action); err != nil {
			return err
		}
		outbox.Add(target.ID, "Аккаунт заблокирован", "Причина: "+*target.BanReason, entity.NotificationAccountBanned)
		return nil
	})
	if err != nil {
		logger.Failure(entry, err, "user: не удалось заблокировать пользователя")
		return nil, err
	}
	entry.Info("user: пользователь заблокирован")

	outbox.Flush(ctx, uc.notifier)
	return target, nil
}

type UnbanUseCase struct {
	store repository.Store
}

func NewUnbanUseCase(store repository.Store) *UnbanUseCase {
	return &UnbanUseCase{store: store}
}

func (uc *UnbanUseCase) Execute(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (*entity.User, error) {
	if err := authz.RequireModerator(actor); err != nil {
		return nil, err
	}

	var target *entity.User
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		target, err = tx.LockUser(ctx, targetID)
		if err != nil {
			return err
		}
		if !target.IsBanned {
			return nil
		}
		target.Unban()
		if err := tx.UpdateUser(ctx, target); err != nil {
			return err
		}
		return tx.RecordAdminAction(ctx, entity.NewAdminAction(actor.UserID, entity.AdminActionUnbanUser, "user", target.ID, nil))
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"target_id": targetID, "actor_id": actor.UserID}).Info("user: блокировка снята")
	return target, nil
}
