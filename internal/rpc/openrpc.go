package rpc

// openRPCSchema is the embedded schema string returned by openrpc_discover
// (spec §6). The schema only needs to describe the method set; it plays
// no part in dispatch.
const openRPCSchema = `{
  "openrpc": "1.2.6",
  "info": {"title": "emerald-signer", "version": "1.0.0"},
  "methods": [
    {"name": "signer_listAddresses"},
    {"name": "signer_importAddress"},
    {"name": "signer_deleteAddress"},
    {"name": "signer_listAccounts"},
    {"name": "signer_hideAccount"},
    {"name": "signer_unhideAccount"},
    {"name": "signer_shakeAccount"},
    {"name": "signer_updateAccount"},
    {"name": "signer_importAccount"},
    {"name": "signer_exportAccount"},
    {"name": "signer_newAccount"},
    {"name": "signer_signTransaction"},
    {"name": "signer_sign"},
    {"name": "signer_signTypedData"},
    {"name": "signer_encodeFunctionCall"},
    {"name": "signer_listContracts"},
    {"name": "signer_importContract"},
    {"name": "signer_generateMnemonic"},
    {"name": "signer_importMnemonic"},
    {"name": "openrpc_discover"}
  ]
}`
