package handler

import (
	"muzmates/internal/usecase"
)

var (
	authHandler    *AuthHandler
	userHandler    *UserHandler
	listingHandler *ListingHandler
	draftHandler   *DraftHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	listingUseCase *usecase.ListingUseCase,
	draftUseCase *usecase.DraftUseCase,
	catalog *usecase.CatalogStore,
	notifier ProgressNotifier,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase, authUseCase, notifier)
	listingHandler = NewListingHandler(listingUseCase, draftUseCase, catalog)
	draftHandler = NewDraftHandler(draftUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetDraftHandler() *DraftHandler {
	return draftHandler
}
