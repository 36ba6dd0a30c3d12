package rpc

import (
	"encoding/json"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

// methodTable implements spec §6's method table, unpacking each method's
// positional JSON params array and calling the matching Service method.
var methodTable = map[string]methodFunc{
	"signer_listAddresses": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var add Additional
		if err := param(p, 0, &add); err != nil {
			return nil, err
		}
		return svc.ListAddresses(ListAddressesParams{Additional: add})
	},
	"signer_listAccounts": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var lp ListAccountsParams
		if err := param(p, 0, &lp); err != nil {
			return nil, err
		}
		return svc.ListAccounts(lp)
	},
	"signer_importAddress": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var ip ImportAddressParams
		var add Additional
		if err := param(p, 0, &ip); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.ImportAddress(ip, add)
	},
	"signer_deleteAddress": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var dp DeleteAddressParams
		var add Additional
		if err := param(p, 0, &dp); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.DeleteAddress(dp, add)
	},
	"signer_hideAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var vp VisibilityParams
		var add Additional
		if err := param(p, 0, &vp); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.HideAccount(vp, add)
	},
	"signer_unhideAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var vp VisibilityParams
		var add Additional
		if err := param(p, 0, &vp); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.UnhideAccount(vp, add)
	},
	"signer_shakeAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var sp ShakeAccountParams
		var add Additional
		if err := param(p, 0, &sp); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.ShakeAccount(sp, add)
	},
	"signer_updateAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var up UpdateAccountParams
		var add Additional
		if err := param(p, 0, &up); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.UpdateAccount(up, add)
	},
	"signer_importAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var add Additional
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		if len(p) == 0 {
			return nil, errMissingParam("keyfile json")
		}
		addr, err := svc.ImportAccount(p[0], add)
		if err != nil {
			return nil, err
		}
		return addr.Hex(), nil
	},
	"signer_exportAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var ep ExportAccountParams
		var add Additional
		if err := param(p, 0, &ep); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		raw, err := svc.ExportAccount(ep, add)
		if err != nil {
			return nil, err
		}
		var out json.RawMessage = raw
		return out, nil
	},
	"signer_newAccount": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var np NewAccountParams
		var add Additional
		if err := param(p, 0, &np); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		addr, err := svc.NewAccount(np, add)
		if err != nil {
			return nil, err
		}
		return addr.Hex(), nil
	},
	"signer_signTransaction": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var tx TxParams
		var passphrase string
		var add Additional
		if err := param(p, 0, &tx); err != nil {
			return nil, err
		}
		if err := param(p, 1, &passphrase); err != nil {
			return nil, err
		}
		if err := param(p, 2, &add); err != nil {
			return nil, err
		}
		return svc.SignTransaction(tx, passphrase, add)
	},
	"signer_sign": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var message, address, passphrase string
		var add Additional
		if err := param(p, 0, &message); err != nil {
			return nil, err
		}
		if err := param(p, 1, &address); err != nil {
			return nil, err
		}
		if err := param(p, 2, &passphrase); err != nil {
			return nil, err
		}
		if err := param(p, 3, &add); err != nil {
			return nil, err
		}
		return svc.Sign(message, address, passphrase, add)
	},
	"signer_signTypedData": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var address string
		var td TypedDataParams
		var passphrase string
		var add Additional
		if err := param(p, 0, &address); err != nil {
			return nil, err
		}
		if err := param(p, 1, &td); err != nil {
			return nil, err
		}
		if err := param(p, 2, &passphrase); err != nil {
			return nil, err
		}
		if err := param(p, 3, &add); err != nil {
			return nil, err
		}
		return svc.SignTypedData(address, td, passphrase, add)
	},
	"signer_encodeFunctionCall": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var value string
		var efc EncodeFunctionCallParams
		if err := param(p, 0, &value); err != nil {
			return nil, err
		}
		if err := param(p, 1, &efc); err != nil {
			return nil, err
		}
		return svc.EncodeFunctionCall(value, efc)
	},
	"signer_listContracts": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var add Additional
		if err := param(p, 0, &add); err != nil {
			return nil, err
		}
		return svc.ListContracts(add)
	},
	"signer_importContract": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var wrapper struct {
			Name string          `json:"name"`
			ABI  json.RawMessage `json:"abi"`
		}
		var add Additional
		if err := param(p, 0, &wrapper); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		return svc.ImportContract(wrapper.Name, wrapper.ABI, add)
	},
	"signer_generateMnemonic": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		return svc.GenerateMnemonic()
	},
	"signer_importMnemonic": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		var mp ImportMnemonicParams
		var add Additional
		if err := param(p, 0, &mp); err != nil {
			return nil, err
		}
		if err := param(p, 1, &add); err != nil {
			return nil, err
		}
		addr, err := svc.ImportMnemonic(mp, add)
		if err != nil {
			return nil, err
		}
		return addr.Hex(), nil
	},
	"openrpc_discover": func(svc *Service, p []json.RawMessage) (interface{}, error) {
		return openRPCSchema, nil
	},
}

func errMissingParam(what string) error {
	return apperr.Newf(apperr.InvalidDataFormat, "missing required parameter: %s", what)
}
