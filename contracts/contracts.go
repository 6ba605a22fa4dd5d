// Package contracts holds the ABI fragments the ledger client binds against.
// Only the functions the engine actually calls are declared.
package contracts

// MultipleArbitrableTransactionABI is the native-asset escrow contract.
const MultipleArbitrableTransactionABI = `[
  {"name":"createTransaction","type":"function","stateMutability":"payable","inputs":[{"name":"_timeoutPayment","type":"uint256"},{"name":"_receiver","type":"address"},{"name":"_metaEvidence","type":"string"}],"outputs":[{"name":"transactionID","type":"uint256"}]},
  {"name":"pay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_amount","type":"uint256"}],"outputs":[]},
  {"name":"reimburse","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_amountReimbursed","type":"uint256"}],"outputs":[]},
  {"name":"payArbitrationFeeBySender","type":"function","stateMutability":"payable","inputs":[{"name":"_transactionID","type":"uint256"}],"outputs":[]},
  {"name":"payArbitrationFeeByReceiver","type":"function","stateMutability":"payable","inputs":[{"name":"_transactionID","type":"uint256"}],"outputs":[]},
  {"name":"submitEvidence","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_evidence","type":"string"}],"outputs":[]},
  {"name":"getCountTransactions","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"transactions","type":"function","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"sender","type":"address"},{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"},{"name":"timeoutPayment","type":"uint256"},{"name":"disputeId","type":"uint256"},{"name":"senderFee","type":"uint256"},{"name":"receiverFee","type":"uint256"},{"name":"lastInteraction","type":"uint256"},{"name":"status","type":"uint8"}]},
  {"name":"arbitrator","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"name":"arbitratorExtraData","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes"}]}
]`

// MultipleArbitrableTokenTransactionABI is the ERC20 escrow contract. Its
// create call is non-payable; the amount is pulled via transferFrom, so the
// caller must have approved the contract first.
const MultipleArbitrableTokenTransactionABI = `[
  {"name":"createTransaction","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amount","type":"uint256"},{"name":"_token","type":"address"},{"name":"_timeoutPayment","type":"uint256"},{"name":"_receiver","type":"address"},{"name":"_metaEvidence","type":"string"}],"outputs":[{"name":"transactionIndex","type":"uint256"}]},
  {"name":"pay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_amount","type":"uint256"}],"outputs":[]},
  {"name":"reimburse","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_amountReimbursed","type":"uint256"}],"outputs":[]},
  {"name":"payArbitrationFeeBySender","type":"function","stateMutability":"payable","inputs":[{"name":"_transactionID","type":"uint256"}],"outputs":[]},
  {"name":"payArbitrationFeeByReceiver","type":"function","stateMutability":"payable","inputs":[{"name":"_transactionID","type":"uint256"}],"outputs":[]},
  {"name":"submitEvidence","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_transactionID","type":"uint256"},{"name":"_evidence","type":"string"}],"outputs":[]},
  {"name":"getCountTransactions","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"transactions","type":"function","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"sender","type":"address"},{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"},{"name":"token","type":"address"},{"name":"timeoutPayment","type":"uint256"},{"name":"disputeId","type":"uint256"},{"name":"senderFee","type":"uint256"},{"name":"receiverFee","type":"uint256"},{"name":"lastInteraction","type":"uint256"},{"name":"status","type":"uint8"}]},
  {"name":"arbitrator","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"name":"arbitratorExtraData","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes"}]}
]`

// ERC20ABI covers the token operations the create pre-flight needs.
const ERC20ABI = `[
  {"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// ArbitratorABI exposes the fee quote on the arbitrator the escrow contracts
// point at.
const ArbitratorABI = `[
  {"name":"arbitrationCost","type":"function","stateMutability":"view","inputs":[{"name":"_extraData","type":"bytes"}],"outputs":[{"name":"cost","type":"uint256"}]}
]`
