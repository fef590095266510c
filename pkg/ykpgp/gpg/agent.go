package gpg

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// AgentError is an ERR reply from the agent. gpg-connect-agent exits 0
// even when the agent rejects a command, so replies are checked here.
type AgentError struct {
	Request string
	Reply   string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent rejected %q: %s", e.Request, e.Reply)
}

// AgentOption is one line of `gpgconf --list-options`.
type AgentOption struct {
	Name  string
	Value string
}

// Enabled reports whether the option carries a value.
func (o AgentOption) Enabled() bool {
	return o.Value != ""
}

const fieldOptionValue = 9

// ParseAgentOptions decodes `gpgconf --list-options` output.
func ParseAgentOptions(data []byte) []AgentOption {
	var opts []AgentOption
	for _, rec := range ParseRecords(data) {
		opts = append(opts, AgentOption{
			Name:  rec.Kind(),
			Value: rec.Field(fieldOptionValue),
		})
	}
	return opts
}

// agent sends a single request to the agent.
func (c *Client) agent(ctx context.Context, request string) (string, error) {
	out, err := c.Runner.Output(ctx, Command{
		Program: c.Programs.ConnectAgent,
		Args:    []string{request, "/bye"},
	})
	if err != nil {
		return "", err
	}
	reply := string(out)
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(line, "ERR") {
			return reply, &AgentError{Request: request, Reply: strings.TrimSpace(line)}
		}
	}
	return reply, nil
}

// DeleteKey force-deletes the local secret key object with the given grip.
func (c *Client) DeleteKey(ctx context.Context, grip string) error {
	_, err := c.agent(ctx, "delete_key --force "+grip)
	return err
}

// Confirm shows message in the agent's pinentry dialog.
func (c *Client) Confirm(ctx context.Context, message string) error {
	_, err := c.agent(ctx, "get_confirmation "+escapeAssuan(message))
	return err
}

// escapeAssuan percent-escapes a message for an Assuan command line.
// Spaces are kept since pinentry renders them literally; "+" would be
// read back as a space.
func escapeAssuan(message string) string {
	escaped := strings.ReplaceAll(url.PathEscape(message), "%20", " ")
	return strings.ReplaceAll(escaped, "+", "%2B")
}

// AgentOptions lists the agent's configuration options.
func (c *Client) AgentOptions(ctx context.Context) ([]AgentOption, error) {
	out, err := c.Runner.Output(ctx, Command{
		Program: c.Programs.GPGConf,
		Args:    []string{"--list-options", "gpg-agent"},
	})
	if err != nil {
		return nil, err
	}
	return ParseAgentOptions(out), nil
}

var optionEscaper = strings.NewReplacer("%", "%25", ":", "%3a", ",", "%2c")

// QuoteOption encodes a string value for SetAgentOption.
func QuoteOption(value string) string {
	return `"` + optionEscaper.Replace(value)
}

// SetAgentOption sets an agent option persistently. String values must
// be passed through QuoteOption.
func (c *Client) SetAgentOption(ctx context.Context, name, value string) error {
	_, err := c.Runner.Output(ctx, Command{
		Program: c.Programs.GPGConf,
		Args:    []string{"--change-options", "gpg-agent"},
		Stdin:   []byte(fmt.Sprintf("%s:0:%s\n", name, value)),
	})
	return err
}

// ListDir returns one of gpgconf's directories (homedir, agent-ssh-socket, ...).
func (c *Client) ListDir(ctx context.Context, name string) (string, error) {
	out, err := c.Runner.Output(ctx, Command{
		Program: c.Programs.GPGConf,
		Args:    []string{"--list-dirs", name},
	})
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", &NotFoundError{What: "gpgconf directory " + name}
	}
	return dir, nil
}

// HomeDir returns the override home or asks gpgconf.
func (c *Client) HomeDir(ctx context.Context) (string, error) {
	if c.Home != "" {
		return c.Home, nil
	}
	return c.ListDir(ctx, "homedir")
}
