// Command zkauth is a passwordless authentication tool built on Schnorr
// identification, with an experimental capsule-based attestation mode.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/sealbound/zkauth"
	"github.com/sealbound/zkauth/big"
	"github.com/sealbound/zkauth/group"
	"github.com/sealbound/zkauth/richens"
	"github.com/sealbound/zkauth/server"
	"github.com/sealbound/zkauth/store"
)

func main() {
	app := &cli.App{
		Name:  "zkauth",
		Usage: "Passwordless zero-knowledge authentication",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "Location of the credential store",
				Value: "credentials.db",
			},
			&cli.IntFlag{
				Name:  "bits",
				Usage: fmt.Sprintf("Modulus bit length %v", group.DefaultKeyLengths),
				Value: 2048,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				zkauth.Logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			richensMintCommand(),
			richensLoginCommand(),
			serveCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func groupFromFlags(c *cli.Context) (*group.Group, error) {
	return group.NewDefaultGroup(c.Int("bits"))
}

func openStore(c *cli.Context) (*store.Store, error) {
	return store.Open(c.String("store"))
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, 0)
	}
	fmt.Println(string(data))
	return nil
}

func parseHexFlag(c *cli.Context, name string) (*big.Int, error) {
	raw := c.String(name)
	if raw == "" {
		return nil, nil
	}
	value := new(big.Int)
	if err := value.UnmarshalText([]byte(raw)); err != nil {
		return nil, errors.WrapPrefix(err, name+" must be hex encoded", 0)
	}
	return value, nil
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Register a new credential",
		ArgsUsage: "[alias]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "secret",
				Usage: "Hex-encoded private secret; generated when omitted",
			},
		},
		Action: func(c *cli.Context) error {
			grp, err := groupFromFlags(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			defer st.Close()

			secret, err := parseHexFlag(c, "secret")
			if err != nil {
				return err
			}
			result, err := zkauth.Register(grp, st, c.Args().First(), secret)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Authenticate a credential",
		ArgsUsage: "identifier secret",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "credential",
				Usage: "Interpret the identifier as a credential id instead of an alias",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("expected arguments: identifier secret")
			}
			grp, err := groupFromFlags(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			defer st.Close()

			secret := new(big.Int)
			if err := secret.UnmarshalText([]byte(c.Args().Get(1))); err != nil {
				return errors.WrapPrefix(err, "secret must be hex encoded", 0)
			}
			result, err := zkauth.Authenticate(grp, st, c.Args().First(), secret, !c.Bool("credential"))
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return cli.Exit("authentication failed", 1)
			}
			return nil
		},
	}
}

// richensMintOutput mirrors the capsule payload written by richens-mint: the
// capsule itself plus the persona and the essence the holder must retain.
type richensMintOutput struct {
	Capsule *richens.Capsule `json:"capsule"`
	Persona string           `json:"persona"`
	Essence string           `json:"essence"`
}

func richensMintCommand() *cli.Command {
	return &cli.Command{
		Name:  "richens-mint",
		Usage: "Mint a capsule representing a stateless identity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "essence",
				Usage: "Hex-encoded personal essence; generated when omitted",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "Application context string",
				Value: richens.DefaultContext,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Optional file path to store the capsule JSON",
			},
		},
		Action: func(c *cli.Context) error {
			grp, err := groupFromFlags(c)
			if err != nil {
				return err
			}
			var essence []byte
			if raw := c.String("essence"); raw != "" {
				essence, err = hex.DecodeString(raw)
				if err != nil {
					return errors.WrapPrefix(err, "essence must be hex encoded", 0)
				}
			} else {
				essence, err = richens.GenerateEssence()
				if err != nil {
					return err
				}
			}
			capsule, err := richens.MintCapsule(grp, essence, c.String("context"))
			if err != nil {
				return err
			}
			payload := richensMintOutput{
				Capsule: capsule,
				Persona: capsule.Persona(),
				Essence: hex.EncodeToString(essence),
			}
			if path := c.String("output"); path != "" {
				data, err := json.MarshalIndent(capsule, "", "  ")
				if err != nil {
					return errors.Wrap(err, 0)
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return errors.Wrap(err, 0)
				}
			}
			return printJSON(payload)
		},
	}
}

type richensLoginOutput struct {
	Challenge *big.Int       `json:"challenge"`
	Persona   string         `json:"capsule_persona"`
	Proof     *richens.Proof `json:"proof"`
	Verified  bool           `json:"verified"`
}

func richensLoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "richens-login",
		Usage:     "Perform a capsule attestation",
		ArgsUsage: "capsule.json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "essence",
				Usage:    "Hex-encoded personal essence retained by the participant",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "challenge",
				Usage: "Optional hex-encoded challenge; issued fresh when omitted",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected argument: path to the capsule JSON")
			}
			grp, err := groupFromFlags(c)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return errors.Wrap(err, 0)
			}
			// Accept both a bare capsule and the richens-mint output wrapper.
			var wrapper struct {
				Capsule json.RawMessage `json:"capsule"`
			}
			if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.Capsule) > 0 {
				data = wrapper.Capsule
			}
			capsule, err := richens.ParseCapsule(grp, data)
			if err != nil {
				return err
			}

			challenge, err := parseHexFlag(c, "challenge")
			if err != nil {
				return err
			}
			if challenge == nil {
				challenge = richens.IssueChallenge(grp, richens.DefaultChallengeBits)
			}
			if challenge.Sign() <= 0 {
				return errors.New("challenge must be greater than zero")
			}

			essence, err := hex.DecodeString(c.String("essence"))
			if err != nil {
				return errors.WrapPrefix(err, "essence must be hex encoded", 0)
			}
			proof, err := richens.RespondToChallenge(grp, essence, challenge, capsule.Context)
			if err != nil {
				return err
			}
			verified := richens.VerifyAttestation(grp, capsule, challenge, proof)
			if err := printJSON(richensLoginOutput{
				Challenge: challenge,
				Persona:   capsule.Persona(),
				Proof:     proof,
				Verified:  verified,
			}); err != nil {
				return err
			}
			if !verified {
				return cli.Exit("attestation failed", 1)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP authentication service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on",
				Value: ":8080",
			},
		},
		Action: func(c *cli.Context) error {
			grp, err := groupFromFlags(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			defer st.Close()

			zkauth.Logger.WithFields(logrus.Fields{
				"addr": c.String("listen"),
				"bits": c.Int("bits"),
			}).Info("serving")
			return server.New(grp, st).Listen(c.String("listen"))
		},
	}
}
