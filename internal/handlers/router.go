package handlers

import (
	"github.com/gin-gonic/gin"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/middleware"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Listing    *ListingHandler
	Submission *SubmissionHandler
	Sponsor    *SponsorHandler
	Grant      *GrantHandler
	Comment    *CommentHandler
	PoW        *PoWHandler
	Credit     *CreditHandler
	Referral   *ReferralHandler
	Email      *EmailHandler
	KYC        *KYCHandler
	Cron       *CronHandler
	Admin      *AdminHandler
}

// Secrets used to authenticate machine-to-machine routes
type Secrets struct {
	Cron   string
	Sumsub string
}

// Register mounts all routes on r
func (h *Handlers) Register(r gin.IRouter, secrets Secrets) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.GET("/nonce", h.Auth.Nonce)
		authRoutes.POST("/wallet", h.Auth.WalletLogin)
		authRoutes.POST("/logout", h.Auth.Logout)
		authRoutes.GET("/me", auth.AuthMiddleware(), h.Auth.GetMe)
	}

	public := r.Group("/api")
	public.Use(auth.OptionalAuthMiddleware())
	{
		public.GET("/listings", h.Listing.GetFeed)
		public.GET("/listings/:slug", h.Listing.GetBySlug)
		public.GET("/featured/availability", h.Listing.FeaturedAvailability)
		public.GET("/grants", h.Grant.List)
		public.GET("/grants/:slug", h.Grant.GetBySlug)
		public.GET("/sponsors/:slug", h.Sponsor.GetBySlug)
		public.GET("/talent/:username", h.User.GetTalent)
		public.GET("/comments", h.Comment.List)
		public.POST("/email/unsubscribe", h.Email.Unsubscribe)
	}

	r.POST("/api/webhooks/sumsub", middleware.VerifySignature(middleware.SumsubDigestHeader, secrets.Sumsub), h.KYC.SumsubWebhook)
	r.POST("/api/cron/:job", middleware.VerifySignature(middleware.CronSignatureHeader, secrets.Cron), h.Cron.Run)

	api := r.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		user := api.Group("/user")
		{
			user.GET("/profile", h.User.GetProfile)
			user.PUT("/profile", h.User.UpdateProfile)
			user.GET("/kyc", h.User.GetKYCStatus)
		}

		api.GET("/credits", h.Credit.GetBalance)
		api.GET("/credits/history", h.Credit.GetHistory)

		api.GET("/referral/stats", h.Referral.GetReferralStats)
		api.GET("/referral/users", h.Referral.GetReferrals)

		api.POST("/submissions", h.Submission.Create)
		api.GET("/submissions/mine", h.Submission.ListMine)

		api.POST("/grant-applications", h.Grant.Apply)
		api.GET("/grant-applications/mine", h.Grant.MyApplications)

		api.GET("/pow/mine", h.PoW.ListMine)
		api.POST("/pow", h.PoW.Create)
		api.DELETE("/pow/:id", h.PoW.Delete)

		api.POST("/comments", h.Comment.Create)
		api.DELETE("/comments/:id", h.Comment.Delete)

		api.POST("/sponsors", h.Sponsor.Create)

		sponsor := api.Group("/sponsor")
		{
			sponsor.GET("/listings", h.Listing.ListMine)
			sponsor.POST("/listings", h.Listing.Create)
			sponsor.PUT("/listings/:id", h.Listing.Update)
			sponsor.DELETE("/listings/:id", h.Listing.Delete)
			sponsor.POST("/listings/:id/publish", h.Listing.Publish)
			sponsor.POST("/listings/:id/announce", h.Listing.AnnounceWinners)
			sponsor.GET("/listings/:id/submissions", h.Submission.ListForListing)

			sponsor.POST("/submissions/:id/winner", h.Submission.SelectWinner)
			sponsor.POST("/submissions/:id/reject", h.Submission.Reject)
			sponsor.POST("/submissions/:id/paid", h.Submission.MarkPaid)

			sponsor.POST("/grants", h.Grant.Create)
			sponsor.GET("/grants/:id/applications", h.Grant.Applications)
			sponsor.POST("/grant-applications/:id/review", h.Grant.Review)

			sponsor.GET("/teams/:id/members", h.Sponsor.Members)
			sponsor.POST("/teams/:id/members", h.Sponsor.AddMember)
			sponsor.POST("/teams/:id/switch", h.Sponsor.Switch)

			sponsor.GET("/wallet-balance", h.Sponsor.WalletBalance)
		}

		admin := api.Group("/admin")
		admin.Use(h.Admin.AdminMiddleware())
		{
			admin.GET("/users", h.Admin.GetUsers)
			admin.GET("/stats", h.Admin.GetStats)
			admin.GET("/logs", h.Admin.GetLogs)
			admin.POST("/users/:id/credits", h.Admin.AdjustCredits)
			admin.POST("/users/:id/role", h.Admin.SetRole)
			admin.POST("/sponsors/:id/verify", h.Admin.VerifySponsor)
			admin.POST("/listings/:id/featured", h.Admin.SetFeatured)
		}
	}
}
