package handler

import (
	"net/http"
	"strconv"

	"go-event-ticketing/internal/model"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

const (
	principalIDKey   = "principal_id"
	principalRoleKey = "principal_role"
)

// PrincipalMiddleware 身份驗證交由前端閘道處理，這裡只讀取閘道放入的標頭。
// 缺標頭的請求一律 401。
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.GetHeader("X-User-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid user identity",
			})
			return
		}

		role := model.Role(c.GetHeader("X-User-Role"))
		switch role {
		case model.RoleParticipant, model.RoleOrganizer, model.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid user identity",
			})
			return
		}

		c.Set(principalIDKey, id)
		c.Set(principalRoleKey, role)
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) int {
	return c.GetInt(principalIDKey)
}

func CurrentRole(c *gin.Context) model.Role {
	role, _ := c.Get(principalRoleKey)
	r, ok := role.(model.Role)
	if !ok {
		return ""
	}
	return r
}
