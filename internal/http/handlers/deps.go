package handlers

import (
	"github.com/osmium8/reviews-backend/internal/auth"
	"github.com/osmium8/reviews-backend/internal/config"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/services"
	"github.com/osmium8/reviews-backend/internal/upload"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	ReviewHandler   *ReviewHandler
	UserHandler     *UserHandler
	AuthHandler     *AuthHandler

	Store   *repos.Store
	Tokens  *auth.Manager
	Uploads *upload.Store
	APIURL  string
}

func NewDeps(st *repos.Store, cfg config.Config, tokens *auth.Manager, uploads *upload.Store) *Deps {
	catSvc := services.NewCategoryService(st.Categories)
	prodSvc := services.NewProductService(st, uploads)
	revSvc := services.NewReviewService(st)
	userSvc := services.NewUserService(st.Users)
	authSvc := services.NewAuthService(st.Users, tokens)

	return &Deps{
		CategoryHandler: &CategoryHandler{Categories: catSvc},
		ProductHandler:  &ProductHandler{Products: prodSvc, ReviewSvc: revSvc},
		ReviewHandler:   &ReviewHandler{Reviews: revSvc},
		UserHandler:     &UserHandler{Users: userSvc},
		AuthHandler:     &AuthHandler{Auth: authSvc, Users: userSvc},
		Store:           st,
		Tokens:          tokens,
		Uploads:         uploads,
		APIURL:          cfg.APIURL,
	}
}
