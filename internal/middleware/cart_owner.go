package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CartSessionHeader = "X-Cart-Session"

// CartOwner resolves whose cart a request works on and stores it as
// cartOwner. Signed-in users own "user:<id>". Guests own
// "guest:<session>", where the session comes from the X-Cart-Session header
// or is minted and echoed back in the response header. Must run after
// OptionalUser or UserAuth.
func CartOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if value, ok := c.Get("userId"); ok {
			if userID, ok := value.(primitive.ObjectID); ok {
				c.Set("cartOwner", "user:"+userID.Hex())
				c.Next()
				return
			}
		}

		session := strings.TrimSpace(c.GetHeader(CartSessionHeader))
		if _, err := uuid.Parse(session); err != nil {
			session = uuid.NewString()
		}
		c.Header(CartSessionHeader, session)
		c.Set("cartOwner", "guest:"+session)
		c.Next()
	}
}
