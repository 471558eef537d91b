package dispatch

import (
	"github.com/vyrodovalexey/webfunc/internal/handler"
	"github.com/vyrodovalexey/webfunc/internal/params"
)

// Config holds the per-pipeline settings.
type Config struct {
	// Headers are literal response headers, CORS headers included.
	Headers map[string]string
	// ParamsMode selects the sources merged into the parameter bag.
	ParamsMode params.Mode
	// ParamsPropName names the merged parameter bag on the request.
	ParamsPropName string
}

// normalized returns a defensive copy with defaults applied.
func (c Config) normalized() (Config, error) {
	mode, err := params.ParseMode(string(c.ParamsMode))
	if err != nil {
		return Config{}, err
	}

	out := Config{
		Headers:        make(map[string]string, len(c.Headers)),
		ParamsMode:     mode,
		ParamsPropName: c.ParamsPropName,
	}
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	if out.ParamsPropName == "" {
		out.ParamsPropName = handler.DefaultParamsName
	}
	return out, nil
}
