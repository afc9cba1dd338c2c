package service

import (
	"fmt"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPiTools registers the pi_digits and sun_circumference tools.
func registerPiTools(server *mcp.Server, client domain.PiClient, radius measure.Radius) error {
	if server == nil {
		return fmt.Errorf("mcp server is nil")
	}
	if client == nil {
		return fmt.Errorf("pi client is nil")
	}
	if !radius.Valid() {
		return fmt.Errorf("radius is not configured")
	}
	mcp.AddTool(server, domain.PiDigitsTool(), domain.PiDigitsHandler(client))
	mcp.AddTool(server, domain.SunCircumferenceTool(), domain.SunCircumferenceHandler(client, radius))
	return nil
}
