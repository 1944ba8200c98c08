package handler

import (
	"net/http"
	"net/url"
	"strings"

	"quickbidz-storefront/internal/querycache"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/services/storefront/helpers"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// CreateAuctionHandler handles POST /api/auctions. Multipart bodies go
// through the upload checks; JSON bodies are forwarded as they are.
func (h *APIHandler) CreateAuctionHandler(c *gin.Context) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		h.Forward(Route{
			Name:       "CreateAuctionHandler",
			Method:     http.MethodPost,
			Path:       static("/auctions"),
			Status:     http.StatusCreated,
			Fallback:   "Failed to create auction",
			Invalidate: prefixes(querycache.PrefixAuctionLists),
		})(c)
		return
	}

	result, ok := h.uploadForm(c, "CreateAuctionHandler", upload.AuctionImages, "Failed to create auction", false)
	if !ok {
		return
	}
	h.gateway.Invalidate(c.Request.Context(), querycache.PrefixAuctionLists)

	utils.RawJSON(c, http.StatusCreated, result.Raw)
	helpers.LogSuccess("CreateAuctionHandler", "auction created", map[string]any{
		"images": len(result.Response.Files),
	})
}

// ProfileImageHandler handles POST /api/users/profile-image.
func (h *APIHandler) ProfileImageHandler(c *gin.Context) {
	result, ok := h.uploadForm(c, "ProfileImageHandler", upload.ProfileImage, "Failed to upload profile image", true)
	if !ok {
		return
	}

	utils.RawJSON(c, result.Status, result.Raw)
	helpers.LogSuccess("ProfileImageHandler", "profile image uploaded", map[string]any{
		"bytes": len(result.Raw),
	})
}

// uploadForm reads the multipart form and posts it through the uploader. It
// writes the error response itself and reports whether to continue.
func (h *APIHandler) uploadForm(c *gin.Context, handlerName string, opts upload.Options, fallback string, requireFile bool) (upload.Result, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		helpers.HandleBindError(c, handlerName, err)
		return upload.Result{}, false
	}

	files, err := upload.FromMultipart(form.File[opts.FieldName], upload.DefaultMaxSize)
	if err != nil {
		helpers.HandleBindError(c, handlerName, err)
		return upload.Result{}, false
	}
	if requireFile && len(files) == 0 {
		h.fail(c, handlerName, storefronterrors.Invalid("Please select an image to upload"), fallback)
		return upload.Result{}, false
	}

	result, err := h.uploader.Upload(c.Request.Context(), helpers.AccessToken(c), files, url.Values(form.Value), opts)
	if err != nil {
		h.fail(c, handlerName, err, fallback)
		return upload.Result{}, false
	}
	return result, true
}
