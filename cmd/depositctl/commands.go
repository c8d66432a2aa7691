package main

import (
	"errors"
	"fmt"

	"github.com/finpool/deposit-contract/contracts"
	"github.com/finpool/deposit-contract/deploy"
	"github.com/finpool/deposit-contract/internal/config"
	"github.com/finpool/deposit-contract/internal/journal"
	rpcdeposit "github.com/finpool/deposit-contract/rpc/deposit"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

const (
	ownerFlag    = "owner"
	tokenFlag    = "token"
	depositFlag  = "deposit"
	withdrawFlag = "withdraw"
	maxFlag      = "max"
	fromFlag     = "from"
	toFlag       = "to"
)

var errArgs = errors.New("wrong number of arguments")

func deployCommand() cli.Command {
	return cli.Command{
		Name:  "deploy",
		Usage: "Deploy compiled Deposit contract (no-op if already deployed)",
		Flags: []cli.Flag{
			cli.StringFlag{Name: ownerFlag, Usage: "contract owner, sender by default"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			var owner util.Uint160
			if s := c.String(ownerFlag); s != "" {
				var err error
				owner, err = config.ParseUint160(s)
				if err != nil {
					return fmt.Errorf("owner: %w", err)
				}
			}

			ctr, err := contracts.Read(e.cfg.Contract.Dir)
			if err != nil {
				return err
			}

			a, err := e.bc.actor()
			if err != nil {
				return err
			}

			h, err := deploy.Deploy(e.ctx, deploy.Prm{
				Logger:     e.log,
				Blockchain: e.bc.rpc,
				Actor:      a,
				Management: management.New(a),
				Contract: deploy.CommonDeployPrm{
					NEF:      ctr.NEF,
					Manifest: ctr.Manifest,
				},
				Owner: owner,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "%s (%s)\n", h.StringLE(), address.Uint160ToString(h))
			return nil
		}),
	}
}

func settingsCommand() cli.Command {
	return cli.Command{
		Name:  "settings",
		Usage: "Manage NEP-17 token settings",
		Subcommands: []cli.Command{
			{
				Name:      "get",
				Usage:     "Show token settings",
				ArgsUsage: "<token>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					token, err := hashArg(c, 0, 1)
					if err != nil {
						return err
					}

					r, err := e.bc.reader()
					if err != nil {
						return err
					}

					s, err := r.GetTokenSettings(token)
					if err != nil {
						return err
					}

					printSettings(c, s)
					return nil
				}),
			},
			{
				Name:      "set",
				Usage:     "Store token settings (owner only)",
				ArgsUsage: "<token>",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: depositFlag, Usage: "allow deposits"},
					cli.BoolFlag{Name: withdrawFlag, Usage: "allow withdrawals"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					token, err := hashArg(c, 0, 1)
					if err != nil {
						return err
					}

					ctr, a, err := e.bc.contract()
					if err != nil {
						return err
					}

					e.log.Info("storing token settings", zap.Stringer("token", token),
						zap.Bool("withdraw", c.Bool(withdrawFlag)), zap.Bool("deposit", c.Bool(depositFlag)))

					h, vub, err := ctr.StoreTokenSettings(token, c.Bool(withdrawFlag), c.Bool(depositFlag))
					return e.bc.await(a, h, vub, err)
				}),
			},
			{
				Name:  "list",
				Usage: "Show settings of all configured tokens",
				Flags: []cli.Flag{
					cli.IntFlag{Name: maxFlag, Usage: "maximum number of tokens", Value: 100},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					r, err := e.bc.reader()
					if err != nil {
						return err
					}

					items, err := r.ListTokensExpanded(c.Int(maxFlag))
					if err != nil {
						return err
					}

					for i := range items {
						var s rpcdeposit.DepositTokenSettings
						if err := s.FromStackItem(items[i]); err != nil {
							return fmt.Errorf("token #%d: %w", i, err)
						}
						printSettings(c, &s)
					}
					return nil
				}),
			},
		},
	}
}

func ownerCommand() cli.Command {
	return cli.Command{
		Name:  "owner",
		Usage: "Manage contract owner",
		Subcommands: []cli.Command{
			{
				Name:  "get",
				Usage: "Show contract owner",
				Action: withEnv(func(c *cli.Context, e *env) error {
					r, err := e.bc.reader()
					if err != nil {
						return err
					}

					owner, err := r.Owner()
					if err != nil {
						return err
					}

					fmt.Fprintln(c.App.Writer, address.Uint160ToString(owner))
					return nil
				}),
			},
			{
				Name:      "transfer",
				Usage:     "Pass ownership to another account (owner only)",
				ArgsUsage: "<new owner>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					newOwner, err := hashArg(c, 0, 1)
					if err != nil {
						return err
					}

					ctr, a, err := e.bc.contract()
					if err != nil {
						return err
					}

					h, vub, err := ctr.TransferOwnership(newOwner)
					return e.bc.await(a, h, vub, err)
				}),
			},
		},
	}
}

func balanceCommand() cli.Command {
	return cli.Command{
		Name:      "balance",
		Usage:     "Show deposited GAS or tokens",
		ArgsUsage: "[account]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: tokenFlag, Usage: "NEP-17 token, GAS by default"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			var (
				account util.Uint160
				err     error
			)
			switch c.NArg() {
			case 0:
				acc, err := e.bc.account()
				if err != nil {
					return err
				}
				account = acc.ScriptHash()
			case 1:
				account, err = hashArg(c, 0, 1)
				if err != nil {
					return err
				}
			default:
				return errArgs
			}

			r, err := e.bc.reader()
			if err != nil {
				return err
			}

			token, err := tokenOption(c)
			if err != nil {
				return err
			}

			if token.Equals(gas.Hash) {
				b, err := r.GetGasBalance(account)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, b)
				return nil
			}

			b, err := r.GetTokenBalance(token, account)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, b)
			return nil
		}),
	}
}

func depositGasCommand() cli.Command {
	return cli.Command{
		Name:      "deposit-gas",
		Usage:     "Deposit GAS from the wallet account",
		ArgsUsage: "<amount>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() != 1 {
				return errArgs
			}

			amount, err := e.bc.parseAmount(gas.Hash, c.Args().First())
			if err != nil {
				return err
			}

			ctr, a, err := e.bc.contract(gas.Hash)
			if err != nil {
				return err
			}

			h, vub, err := ctr.DepositGas(a.Sender(), amount)
			return e.bc.await(a, h, vub, err)
		}),
	}
}

func withdrawGasCommand() cli.Command {
	return cli.Command{
		Name:      "withdraw-gas",
		Usage:     "Withdraw deposited GAS to the wallet account",
		ArgsUsage: "<amount>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if c.NArg() != 1 {
				return errArgs
			}

			amount, err := e.bc.parseAmount(gas.Hash, c.Args().First())
			if err != nil {
				return err
			}

			ctr, a, err := e.bc.contract()
			if err != nil {
				return err
			}

			h, vub, err := ctr.WithdrawGas(a.Sender(), amount)
			return e.bc.await(a, h, vub, err)
		}),
	}
}

func depositTokenCommand() cli.Command {
	return cli.Command{
		Name:      "deposit-token",
		Usage:     "Deposit NEP-17 tokens from the wallet account",
		ArgsUsage: "<token> <amount>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			token, err := hashArg(c, 0, 2)
			if err != nil {
				return err
			}

			amount, err := e.bc.parseAmount(token, c.Args().Get(1))
			if err != nil {
				return err
			}

			ctr, a, err := e.bc.contract(token)
			if err != nil {
				return err
			}

			h, vub, err := ctr.DepositToken(a.Sender(), token, amount)
			return e.bc.await(a, h, vub, err)
		}),
	}
}

func withdrawTokenCommand() cli.Command {
	return cli.Command{
		Name:      "withdraw-token",
		Usage:     "Withdraw deposited NEP-17 tokens to the wallet account",
		ArgsUsage: "<token> <amount>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			token, err := hashArg(c, 0, 2)
			if err != nil {
				return err
			}

			amount, err := e.bc.parseAmount(token, c.Args().Get(1))
			if err != nil {
				return err
			}

			ctr, a, err := e.bc.contract()
			if err != nil {
				return err
			}

			h, vub, err := ctr.WithdrawToken(a.Sender(), token, amount)
			return e.bc.await(a, h, vub, err)
		}),
	}
}

func journalCommand() cli.Command {
	return cli.Command{
		Name:  "journal",
		Usage: "Manage local journal of contract notifications",
		Subcommands: []cli.Command{
			{
				Name:  "sync",
				Usage: "Save notifications from the given block range",
				Flags: []cli.Flag{
					cli.Int64Flag{Name: fromFlag, Usage: "first block, next to the last saved one by default", Value: -1},
					cli.Int64Flag{Name: toFlag, Usage: "last block, current height by default", Value: -1},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					h, err := e.bc.contractHash()
					if err != nil {
						return err
					}

					s, err := journal.Open(e.ctx, e.cfg.Journal.Path)
					if err != nil {
						return err
					}
					defer s.Close()

					from, to := c.Int64(fromFlag), c.Int64(toFlag)
					if from < 0 {
						last, ok, err := s.LastHeight(e.ctx)
						if err != nil {
							return err
						}
						from = 0
						if ok {
							from = int64(last) + 1
						}
					}
					if to < 0 {
						count, err := e.bc.rpc.GetBlockCount()
						if err != nil {
							return fmt.Errorf("get block count: %w", err)
						}
						to = int64(count) - 1
					}

					if from > to {
						e.log.Info("journal is up to date", zap.Int64("from", from), zap.Int64("to", to))
						return nil
					}

					n, err := journal.NewScanner(e.log, e.bc.rpc, h, s).Scan(e.ctx, uint32(from), uint32(to))
					if err != nil {
						return err
					}

					fmt.Fprintf(c.App.Writer, "%d new entries\n", n)
					return nil
				}),
			},
			{
				Name:  "reconcile",
				Usage: "Compare journal with the total balance stored in the contract",
				Flags: []cli.Flag{
					cli.StringFlag{Name: tokenFlag, Usage: "NEP-17 token, GAS by default"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					asset, err := tokenOption(c)
					if err != nil {
						return err
					}

					r, err := e.bc.reader()
					if err != nil {
						return err
					}

					total, err := r.GetTotalBalance(asset)
					if err != nil {
						return err
					}

					s, err := journal.Open(e.ctx, e.cfg.Journal.Path)
					if err != nil {
						return err
					}
					defer s.Close()

					rep, err := s.Reconcile(e.ctx, asset, total)
					if err != nil {
						return err
					}

					fmt.Fprintf(c.App.Writer, "deposited: %s\nwithdrawn: %s\non chain:  %s\n",
						rep.Totals.Deposited, rep.Totals.Withdrawn, rep.OnChain)

					if !rep.Consistent() {
						return fmt.Errorf("journal differs from the contract by %s", rep.Diff())
					}

					fmt.Fprintln(c.App.Writer, "consistent")
					return nil
				}),
			},
		},
	}
}

// hashArg parses i-th of n expected arguments as a script hash.
func hashArg(c *cli.Context, i, n int) (util.Uint160, error) {
	if c.NArg() != n {
		return util.Uint160{}, errArgs
	}

	h, err := config.ParseUint160(c.Args().Get(i))
	if err != nil {
		return h, fmt.Errorf("argument #%d: %w", i+1, err)
	}

	return h, nil
}

// tokenOption returns token given in the flag or GAS hash.
func tokenOption(c *cli.Context) (util.Uint160, error) {
	s := c.String(tokenFlag)
	if s == "" {
		return gas.Hash, nil
	}

	h, err := config.ParseUint160(s)
	if err != nil {
		return h, fmt.Errorf("token: %w", err)
	}

	return h, nil
}

func printSettings(c *cli.Context, s *rpcdeposit.DepositTokenSettings) {
	fmt.Fprintf(c.App.Writer, "%s\tdeposit: %t\twithdraw: %t\n",
		address.Uint160ToString(s.Token), s.IsDepositAllowed, s.IsWithdrawalAllowed)
}
