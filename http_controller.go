package tube

import (
	"context"
	"fmt"
	"path"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tube/media"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	Register          string
	Login             string
	Logout            string
	RefreshToken      string
	ChangePassword    string
	CurrentUser       string
	UpdateAccount     string
	Avatar            string
	CoverImage        string
	Channel           string
	ToggleSubscribe   string
	WatchHistory      string
	WatchHistoryEntry string
	Uploads           string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auther     Authenticator
	HTTP       *RouteAuthenticator
	Routes     *AuthControllerRoutes
	Storage    media.Storage
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithHTTPAuthenticator(http *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.HTTP = http
		return c
	}
}

func WithStorage(storage media.Storage) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Storage = storage
		return c
	}
}

func WithContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = key
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Register:          "/register",
			Login:             "/login",
			Logout:            "/logout",
			RefreshToken:      "/refresh-token",
			ChangePassword:    "/change-password",
			CurrentUser:       "/current-user",
			UpdateAccount:     "/update-account",
			Avatar:            "/avatar",
			CoverImage:        "/cover-image",
			Channel:           "/c/:username",
			ToggleSubscribe:   "/c/:username/subscribe",
			WatchHistory:      "/history",
			WatchHistoryEntry: "/history/:videoId",
			Uploads:           "/uploads",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.HTTP == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes wires the controller routes. Routes past the session
// endpoints require a valid access token.
func RegisterAuthRoutes(app RouteRegistrar, controller *AuthController) {
	protected := controller.HTTP.ProtectedRoute(
		controller.HTTP.MakeAuthErrorHandler(false),
	)

	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.RefreshToken, controller.RefreshToken)

	app.Post(controller.Routes.Logout, controller.LogOut, protected)
	app.Post(controller.Routes.ChangePassword, controller.ChangePassword, protected)
	app.Get(controller.Routes.CurrentUser, controller.CurrentUser, protected)
	app.Patch(controller.Routes.UpdateAccount, controller.UpdateAccount, protected)
	app.Patch(controller.Routes.Avatar, controller.UpdateAvatar, protected)
	app.Patch(controller.Routes.CoverImage, controller.UpdateCoverImage, protected)
	app.Get(controller.Routes.Channel, controller.ChannelProfile, protected)
	app.Post(controller.Routes.ToggleSubscribe, controller.ToggleSubscription, protected)
	app.Get(controller.Routes.WatchHistory, controller.WatchHistory, protected)
	app.Post(controller.Routes.WatchHistoryEntry, controller.RecordWatch, protected)
	app.Post(controller.Routes.Uploads, controller.CreateUpload, protected)
}

// RegistrationCreatePayload is the register request body.
type RegistrationCreatePayload struct {
	FullName string `form:"fullname" json:"fullname"`
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Avatar   string `form:"avatar" json:"avatar"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
			validation.Field(&r.Username, validation.Required, validation.Length(3, 60)),
			validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		)
	}, "Invalid registration payload")
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return RespondError(ctx, err)
	}

	req := RegisterUserMessage{
		FullName:  payload.FullName,
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		Avatar:    payload.Avatar,
		UseHashid: true,
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return RespondError(ctx, err)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), payload.Email)
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusCreated, user.Sanitized(), "User registered successfully")
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Username   string `form:"username" json:"username"`
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns whichever identifier the client sent.
func (r LoginRequest) GetIdentifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Password, validation.Required),
			validation.Field(&r.Identifier, validation.By(func(any) error {
				if r.GetIdentifier() == "" {
					return fmt.Errorf("an identifier, username or email is required")
				}
				return nil
			})),
		)
	}, "Invalid login request payload")
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("login error", "error", err)
		return RespondError(ctx, err)
	}

	a.HTTP.SetSessionCookies(ctx, &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})

	return RespondJSON(ctx, router.StatusOK, result, "User logged in successfully")
}

func (a *AuthController) LogOut(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if err := a.Auther.Logout(ctx.Context(), userID); err != nil {
		a.Logger.Error("logout error", "error", err)
		return RespondError(ctx, err)
	}

	a.HTTP.ClearSessionCookies(ctx)

	return RespondJSON(ctx, router.StatusOK, map[string]any{}, "User logged out")
}

// RefreshRequest carries the refresh token when it is not sent as a cookie.
type RefreshRequest struct {
	RefreshToken string `form:"refreshToken" json:"refreshToken"`
}

func (a *AuthController) RefreshToken(ctx router.Context) error {
	presented := ctx.Cookies(RefreshTokenCookie, "")

	if presented == "" {
		payload := new(RefreshRequest)
		if err := ctx.Bind(payload); err == nil {
			presented = payload.RefreshToken
		}
	}

	pair, err := a.Auther.Refresh(ctx.Context(), presented)
	if err != nil {
		a.Logger.Error("refresh token error", "error", err)
		return RespondError(ctx, err)
	}

	a.HTTP.SetSessionCookies(ctx, pair)

	return RespondJSON(ctx, router.StatusOK, pair, "Access token refreshed")
}

// ChangePasswordPayload carries the current and replacement passwords.
type ChangePasswordPayload struct {
	OldPassword string `form:"oldPassword" json:"oldPassword"`
	NewPassword string `form:"newPassword" json:"newPassword"`
}

// Validate will validate the payload
func (r ChangePasswordPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.OldPassword, validation.Required),
			validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		)
	}, "Invalid change password payload")
}

func (a *AuthController) ChangePassword(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	payload := new(ChangePasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, err)
	}

	if err := a.Auther.ChangePassword(ctx.Context(), userID, payload.OldPassword, payload.NewPassword); err != nil {
		a.Logger.Error("change password error", "error", err)
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, map[string]any{}, "Password changed successfully")
}

func (a *AuthController) CurrentUser(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), userID.String())
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, user.Sanitized(), "Current user fetched successfully")
}

// UpdateAccountPayload updates mutable account details.
type UpdateAccountPayload struct {
	FullName string `form:"fullname" json:"fullname"`
	Email    string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r UpdateAccountPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
			validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		)
	}, "Invalid account update payload")
}

func (a *AuthController) UpdateAccount(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	payload := new(UpdateAccountPayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, err)
	}

	user, err := a.Repo.Users().UpdateAccountDetails(ctx.Context(), userID, payload.FullName, payload.Email)
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, user.Sanitized(), "Account details updated successfully")
}

// UpdateImagePayload points at an uploaded object by its storage key.
type UpdateImagePayload struct {
	Key string `form:"key" json:"key"`
}

// Validate will validate the payload
func (r UpdateImagePayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Key, validation.Required, validation.Length(1, 512)),
		)
	}, "Invalid image payload")
}

func (a *AuthController) UpdateAvatar(ctx router.Context) error {
	return a.updateImage(ctx, a.Repo.Users().UpdateAvatar, "Avatar updated successfully")
}

func (a *AuthController) UpdateCoverImage(ctx router.Context) error {
	return a.updateImage(ctx, a.Repo.Users().UpdateCoverImage, "Cover image updated successfully")
}

func (a *AuthController) updateImage(ctx router.Context, update func(ctx context.Context, id uuid.UUID, url string) (*User, error), message string) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if a.Storage == nil {
		return RespondError(ctx, goerrors.New("media storage is not configured", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal))
	}

	payload := new(UpdateImagePayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, err)
	}

	user, err := update(ctx.Context(), userID, a.Storage.ObjectURL(payload.Key))
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, user.Sanitized(), message)
}

func (a *AuthController) ChannelProfile(ctx router.Context) error {
	currentID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	username := ctx.Param("username")
	if username == "" {
		return RespondError(ctx, goerrors.New("username is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	channel, err := a.Repo.Users().GetByIdentifier(ctx.Context(), username)
	if err != nil {
		return RespondError(ctx, err)
	}

	subscribers, err := a.Repo.Subscriptions().CountSubscribers(ctx.Context(), channel.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	subscribedTo, err := a.Repo.Subscriptions().CountSubscribedTo(ctx.Context(), channel.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	isSubscribed, err := a.Repo.Subscriptions().IsSubscribed(ctx.Context(), currentID, channel.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	profile := ChannelProfile{
		ID:              channel.ID,
		Username:        channel.Username,
		FullName:        channel.FullName,
		Email:           channel.Email,
		Avatar:          channel.Avatar,
		CoverImage:      channel.CoverImage,
		SubscriberCount: subscribers,
		SubscribedTo:    subscribedTo,
		IsSubscribed:    isSubscribed,
	}

	return RespondJSON(ctx, router.StatusOK, profile, "Channel profile fetched successfully")
}

// ToggleSubscription flips the current user's subscription to a channel:
// subscribed users unsubscribe, everyone else subscribes.
func (a *AuthController) ToggleSubscription(ctx router.Context) error {
	currentID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	username := ctx.Param("username")
	if username == "" {
		return RespondError(ctx, goerrors.New("username is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	channel, err := a.Repo.Users().GetByIdentifier(ctx.Context(), username)
	if err != nil {
		return RespondError(ctx, err)
	}

	if channel.ID == currentID {
		return RespondError(ctx, goerrors.New("cannot subscribe to your own channel", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	subscribed, err := a.Repo.Subscriptions().IsSubscribed(ctx.Context(), currentID, channel.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	if subscribed {
		err = a.Repo.Subscriptions().Unsubscribe(ctx.Context(), currentID, channel.ID)
	} else {
		_, err = a.Repo.Subscriptions().Subscribe(ctx.Context(), currentID, channel.ID)
	}

	if err != nil {
		a.Logger.Error("toggle subscription error", "error", err)
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, map[string]bool{
		"subscribed": !subscribed,
	}, "Subscription toggled")
}

func (a *AuthController) WatchHistory(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	history, err := a.Repo.Videos().GetWatchHistory(ctx.Context(), userID)
	if err != nil {
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, history, "Watch history fetched successfully")
}

// RecordWatch upserts a watch history entry for the current user, so
// re-watching a video bumps it to the top instead of duplicating it.
func (a *AuthController) RecordWatch(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	videoID, err := uuid.Parse(ctx.Param("videoId"))
	if err != nil {
		return RespondError(ctx, goerrors.New("invalid video id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.Repo.Videos().AddToWatchHistory(ctx.Context(), userID, videoID); err != nil {
		a.Logger.Error("record watch error", "error", err)
		return RespondError(ctx, err)
	}

	return RespondJSON(ctx, router.StatusOK, map[string]any{}, "Watch history updated")
}

// CreateUploadPayload describes the object the client wants to upload.
type CreateUploadPayload struct {
	FileName    string `form:"filename" json:"filename"`
	ContentType string `form:"contentType" json:"contentType"`
}

// Validate will validate the payload
func (r CreateUploadPayload) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.FileName, validation.Required, validation.Length(1, 255)),
		)
	}, "Invalid upload payload")
}

// CreateUpload hands back a presigned PUT URL so clients push media straight
// to object storage instead of through this service.
func (a *AuthController) CreateUpload(ctx router.Context) error {
	userID, err := a.currentUserID(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if a.Storage == nil {
		return RespondError(ctx, goerrors.New("media storage is not configured", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal))
	}

	payload := new(CreateUploadPayload)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RespondError(ctx, err)
	}

	key := path.Join(userID.String(), uuid.NewString()+"-"+payload.FileName)

	uploadURL, err := a.Storage.PresignPut(ctx.Context(), key, 15*time.Minute)
	if err != nil {
		a.Logger.Error("presign upload error", "error", err)
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to presign upload").
			WithCode(goerrors.CodeInternal))
	}

	return RespondJSON(ctx, router.StatusOK, map[string]string{
		"key":       key,
		"uploadUrl": uploadURL,
	}, "Upload URL created")
}

func (a *AuthController) currentUserID(ctx router.Context) (uuid.UUID, error) {
	claims, err := ClaimsFromContext(ctx, a.ContextKey)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrTokenMalformed
	}

	return id, nil
}
