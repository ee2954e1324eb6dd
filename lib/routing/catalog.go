package routing

// catalogEntry is one row of the command catalog: the command's canonical
// wire tokens, whether it's read-only, whether it fans out to every node
// regardless of arguments, and its response-combination policy (nil if the
// command has none).
type catalogEntry struct {
	Tokens   []string
	ReadOnly bool
	AllNodes bool
	Policy   *ResponsePolicy
}

func policyPtr(p ResponsePolicy) *ResponsePolicy { return &p }

var (
	pkAggLogicalAnd  = policyPtr(AggregateLogicalPolicy(And))
	pkAggSum         = policyPtr(AggregatePolicy(Sum))
	pkAggMin         = policyPtr(AggregatePolicy(Min))
	pkAllSucceeded   = policyPtr(AllSucceededPolicy())
	pkCombineArrays  = policyPtr(CombineArraysPolicy())
	pkOneSucceeded   = policyPtr(OneSucceededPolicy())
	pkOneSuccNonEmpt = policyPtr(OneSucceededNonEmptyPolicy())
	pkSpecial        = policyPtr(SpecialPolicy())
)

// catalog is the command table: canonical name (space-joined uppercase
// tokens, e.g. "XGROUP CREATE") to its entry. Transcribed mechanically from
// the Redis command table this module's routing rules were distilled from,
// giving near-complete coverage of the real command set rather than just
// the handful of commands named in worked routing examples.
var catalog = buildCatalog()

func buildCatalog() map[string]catalogEntry {
	readOnly := map[string]bool{
		"BITCOUNT": true, "BITFIELD_RO": true, "BITPOS": true, "DBSIZE": true,
		"DUMP": true, "EVALSHA_RO": true, "EVAL_RO": true, "EXISTS": true,
		"EXPIRETIME": true, "FCALL_RO": true, "GEODIST": true, "GEOHASH": true,
		"GEOPOS": true, "GEORADIUSBYMEMBER_RO": true, "GEORADIUS_RO": true,
		"GEOSEARCH": true, "GET": true, "GETBIT": true, "GETRANGE": true,
		"HEXISTS": true, "HGET": true, "HGETALL": true, "HKEYS": true, "HLEN": true,
		"HMGET": true, "HRANDFIELD": true, "HSCAN": true, "HSTRLEN": true,
		"HVALS": true, "KEYS": true, "LCS": true, "LINDEX": true, "LLEN": true,
		"LOLWUT": true, "LPOS": true, "LRANGE": true, "MEMORY USAGE": true,
		"MGET": true, "OBJECT ENCODING": true, "OBJECT FREQ": true,
		"OBJECT IDLETIME": true, "OBJECT REFCOUNT": true, "PEXPIRETIME": true,
		"PFCOUNT": true, "PTTL": true, "RANDOMKEY": true, "SCAN": true,
		"SCARD": true, "SDIFF": true, "SINTER": true, "SINTERCARD": true,
		"SISMEMBER": true, "SMEMBERS": true, "SMISMEMBER": true, "SORT_RO": true,
		"SRANDMEMBER": true, "SSCAN": true, "STRLEN": true, "SUBSTR": true,
		"SUNION": true, "TOUCH": true, "TTL": true, "TYPE": true,
		"XINFO CONSUMERS": true, "XINFO GROUPS": true, "XINFO STREAM": true,
		"XLEN": true, "XPENDING": true, "XRANGE": true, "XREAD": true,
		"XREVRANGE": true, "ZCARD": true, "ZCOUNT": true, "ZDIFF": true,
		"ZINTER": true, "ZINTERCARD": true, "ZLEXCOUNT": true, "ZMSCORE": true,
		"ZRANDMEMBER": true, "ZRANGE": true, "ZRANGEBYLEX": true,
		"ZRANGEBYSCORE": true, "ZRANK": true, "ZREVRANGE": true,
		"ZREVRANGEBYLEX": true, "ZREVRANGEBYSCORE": true, "ZREVRANK": true,
		"ZSCAN": true, "ZSCORE": true, "ZUNION": true,
	}

	allNodes := map[string]bool{
		"ACL SETUSER": true, "ACL DELUSER": true, "ACL SAVE": true,
		"CLIENT SETNAME": true, "CLIENT SETINFO": true, "SLOWLOG GET": true,
		"SLOWLOG LEN": true, "SLOWLOG RESET": true, "CONFIG SET": true,
		"CONFIG RESETSTAT": true, "CONFIG REWRITE": true, "SCRIPT FLUSH": true,
		"SCRIPT LOAD": true, "LATENCY RESET": true, "LATENCY GRAPH": true,
		"LATENCY HISTOGRAM": true, "LATENCY HISTORY": true, "LATENCY DOCTOR": true,
		"LATENCY LATEST": true,
	}

	policies := map[string]*ResponsePolicy{
		"SCRIPT EXISTS": pkAggLogicalAnd,
		"DBSIZE":        pkAggSum,
		"DEL":           pkAggSum,
		"EXISTS":        pkAggSum,
		"SLOWLOG LEN":   pkAggSum,
		"TOUCH":         pkAggSum,
		"UNLINK":        pkAggSum,
		"WAIT":          pkAggMin,

		"ACL SETUSER":      pkAllSucceeded,
		"ACL DELUSER":      pkAllSucceeded,
		"ACL SAVE":         pkAllSucceeded,
		"CLIENT SETNAME":   pkAllSucceeded,
		"CLIENT SETINFO":   pkAllSucceeded,
		"CONFIG SET":       pkAllSucceeded,
		"CONFIG RESETSTAT": pkAllSucceeded,
		"CONFIG REWRITE":   pkAllSucceeded,
		"FLUSHALL":         pkAllSucceeded,
		"FLUSHDB":          pkAllSucceeded,
		"FUNCTION DELETE":  pkAllSucceeded,
		"FUNCTION FLUSH":   pkAllSucceeded,
		"FUNCTION LOAD":    pkAllSucceeded,
		"FUNCTION RESTORE": pkAllSucceeded,
		"MEMORY PURGE":     pkAllSucceeded,
		"MSET":             pkAllSucceeded,
		"PING":             pkAllSucceeded,
		"SCRIPT FLUSH":     pkAllSucceeded,
		"SCRIPT LOAD":      pkAllSucceeded,
		"SLOWLOG RESET":    pkAllSucceeded,

		"KEYS":         pkCombineArrays,
		"MGET":         pkCombineArrays,
		"SLOWLOG GET":  pkCombineArrays,
		"FUNCTION KILL": pkOneSucceeded,
		"SCRIPT KILL":   pkOneSucceeded,
		"RANDOMKEY":     pkOneSuccNonEmpt,

		"LATENCY GRAPH":       pkSpecial,
		"LATENCY HISTOGRAM":   pkSpecial,
		"LATENCY HISTORY":     pkSpecial,
		"LATENCY DOCTOR":      pkSpecial,
		"LATENCY LATEST":      pkSpecial,
		"FUNCTION STATS":      pkSpecial,
		"MEMORY MALLOC-STATS": pkSpecial,
		"MEMORY DOCTOR":       pkSpecial,
		"MEMORY STATS":        pkSpecial,
		"INFO":                pkSpecial,
	}

	names := [][]string{
		{"ACL"}, {"ACL", "CAT"}, {"ACL", "DELUSER"}, {"ACL", "DRYRUN"},
		{"ACL", "GENPASS"}, {"ACL", "GETUSER"}, {"ACL", "HELP"}, {"ACL", "LIST"},
		{"ACL", "LOAD"}, {"ACL", "LOG"}, {"ACL", "SAVE"}, {"ACL", "SETUSER"},
		{"ACL", "USERS"}, {"ACL", "WHOAMI"},
		{"APPEND"}, {"ASKING"}, {"AUTH"}, {"BGREWRITEAOF"}, {"BGSAVE"},
		{"BITCOUNT"}, {"BITFIELD"}, {"BITFIELD_RO"}, {"BITOP"}, {"BITPOS"},
		{"BLMOVE"}, {"BLMPOP"}, {"BLPOP"}, {"BRPOP"}, {"BRPOPLPUSH"},
		{"BZMPOP"}, {"BZPOPMAX"}, {"BZPOPMIN"},
		{"CLIENT"}, {"CLIENT", "CACHING"}, {"CLIENT", "GETNAME"},
		{"CLIENT", "GETREDIR"}, {"CLIENT", "HELP"}, {"CLIENT", "ID"},
		{"CLIENT", "INFO"}, {"CLIENT", "KILL"}, {"CLIENT", "LIST"},
		{"CLIENT", "NO-EVICT"}, {"CLIENT", "NO-TOUCH"}, {"CLIENT", "PAUSE"},
		{"CLIENT", "REPLY"}, {"CLIENT", "SETINFO"}, {"CLIENT", "SETNAME"},
		{"CLIENT", "TRACKING"}, {"CLIENT", "TRACKINGINFO"}, {"CLIENT", "UNBLOCK"},
		{"CLIENT", "UNPAUSE"},
		{"CLUSTER"}, {"CLUSTER", "ADDSLOTS"}, {"CLUSTER", "ADDSLOTSRANGE"},
		{"CLUSTER", "BUMPEPOCH"}, {"CLUSTER", "COUNT-FAILURE-REPORTS"},
		{"CLUSTER", "COUNTKEYSINSLOT"}, {"CLUSTER", "DELSLOTS"},
		{"CLUSTER", "DELSLOTSRANGE"}, {"CLUSTER", "FAILOVER"},
		{"CLUSTER", "FLUSHSLOTS"}, {"CLUSTER", "FORGET"},
		{"CLUSTER", "GETKEYSINSLOT"}, {"CLUSTER", "HELP"}, {"CLUSTER", "INFO"},
		{"CLUSTER", "KEYSLOT"}, {"CLUSTER", "LINKS"}, {"CLUSTER", "MEET"},
		{"CLUSTER", "MYID"}, {"CLUSTER", "MYSHARDID"}, {"CLUSTER", "NODES"},
		{"CLUSTER", "REPLICAS"}, {"CLUSTER", "REPLICATE"}, {"CLUSTER", "RESET"},
		{"CLUSTER", "SAVECONFIG"}, {"CLUSTER", "SET-CONFIG-EPOCH"},
		{"CLUSTER", "SETSLOT"}, {"CLUSTER", "SHARDS"}, {"CLUSTER", "SLAVES"},
		{"CLUSTER", "SLOTS"},
		{"COMMAND"}, {"COMMAND", "COUNT"}, {"COMMAND", "DOCS"},
		{"COMMAND", "GETKEYS"}, {"COMMAND", "GETKEYSANDFLAGS"},
		{"COMMAND", "HELP"}, {"COMMAND", "INFO"}, {"COMMAND", "LIST"},
		{"CONFIG"}, {"CONFIG", "GET"}, {"CONFIG", "HELP"},
		{"CONFIG", "RESETSTAT"}, {"CONFIG", "REWRITE"}, {"CONFIG", "SET"},
		{"COPY"}, {"DBSIZE"}, {"DEBUG"}, {"DECR"}, {"DECRBY"}, {"DEL"},
		{"DISCARD"}, {"DUMP"}, {"ECHO"}, {"EVAL"}, {"EVALSHA"}, {"EVALSHA_RO"},
		{"EVAL_RO"}, {"EXEC"}, {"EXISTS"}, {"EXPIRE"}, {"EXPIREAT"},
		{"EXPIRETIME"}, {"FAILOVER"}, {"FCALL"}, {"FCALL_RO"}, {"FLUSHALL"},
		{"FLUSHDB"},
		{"FUNCTION"}, {"FUNCTION", "DELETE"}, {"FUNCTION", "DUMP"},
		{"FUNCTION", "FLUSH"}, {"FUNCTION", "HELP"}, {"FUNCTION", "KILL"},
		{"FUNCTION", "LIST"}, {"FUNCTION", "LOAD"}, {"FUNCTION", "RESTORE"},
		{"FUNCTION", "STATS"},
		{"GEOADD"}, {"GEODIST"}, {"GEOHASH"}, {"GEOPOS"}, {"GEORADIUS"},
		{"GEORADIUSBYMEMBER"}, {"GEORADIUSBYMEMBER_RO"}, {"GEORADIUS_RO"},
		{"GEOSEARCH"}, {"GEOSEARCHSTORE"},
		{"GET"}, {"GETBIT"}, {"GETDEL"}, {"GETEX"}, {"GETRANGE"}, {"GETSET"},
		{"HDEL"}, {"HELLO"}, {"HEXISTS"}, {"HGET"}, {"HGETALL"}, {"HINCRBY"},
		{"HINCRBYFLOAT"}, {"HKEYS"}, {"HLEN"}, {"HMGET"}, {"HMSET"},
		{"HRANDFIELD"}, {"HSCAN"}, {"HSET"}, {"HSETNX"}, {"HSTRLEN"}, {"HVALS"},
		{"INCR"}, {"INCRBY"}, {"INCRBYFLOAT"}, {"INFO"}, {"KEYS"},
		{"LASTSAVE"},
		{"LATENCY"}, {"LATENCY", "DOCTOR"}, {"LATENCY", "GRAPH"},
		{"LATENCY", "HELP"}, {"LATENCY", "HISTOGRAM"}, {"LATENCY", "HISTORY"},
		{"LATENCY", "LATEST"}, {"LATENCY", "RESET"},
		{"LCS"}, {"LINDEX"}, {"LINSERT"}, {"LLEN"}, {"LMOVE"}, {"LMPOP"},
		{"LOLWUT"}, {"LPOP"}, {"LPOS"}, {"LPUSH"}, {"LPUSHX"}, {"LRANGE"},
		{"LREM"}, {"LSET"}, {"LTRIM"},
		{"MEMORY"}, {"MEMORY", "DOCTOR"}, {"MEMORY", "HELP"},
		{"MEMORY", "MALLOC-STATS"}, {"MEMORY", "PURGE"}, {"MEMORY", "STATS"},
		{"MEMORY", "USAGE"},
		{"MGET"}, {"MIGRATE"},
		{"MODULE"}, {"MODULE", "HELP"}, {"MODULE", "LIST"}, {"MODULE", "LOAD"},
		{"MODULE", "LOADEX"}, {"MODULE", "UNLOAD"},
		{"MONITOR"}, {"MOVE"}, {"MSET"}, {"MSETNX"}, {"MULTI"},
		{"OBJECT"}, {"OBJECT", "ENCODING"}, {"OBJECT", "FREQ"},
		{"OBJECT", "HELP"}, {"OBJECT", "IDLETIME"}, {"OBJECT", "REFCOUNT"},
		{"PERSIST"}, {"PEXPIRE"}, {"PEXPIREAT"}, {"PEXPIRETIME"}, {"PFADD"},
		{"PFCOUNT"}, {"PFDEBUG"}, {"PFMERGE"}, {"PFSELFTEST"}, {"PING"},
		{"PSETEX"}, {"PSUBSCRIBE"}, {"PSYNC"}, {"PTTL"}, {"PUBLISH"},
		{"PUBSUB"}, {"PUBSUB", "CHANNELS"}, {"PUBSUB", "HELP"},
		{"PUBSUB", "NUMPAT"}, {"PUBSUB", "NUMSUB"}, {"PUBSUB", "SHARDCHANNELS"},
		{"PUBSUB", "SHARDNUMSUB"},
		{"PUNSUBSCRIBE"}, {"QUIT"}, {"RANDOMKEY"}, {"READONLY"}, {"READWRITE"},
		{"RENAME"}, {"RENAMENX"}, {"REPLCONF"}, {"REPLICAOF"}, {"RESET"},
		{"RESTORE"}, {"RESTORE-ASKING"}, {"ROLE"}, {"RPOP"}, {"RPOPLPUSH"},
		{"RPUSH"}, {"RPUSHX"}, {"SADD"}, {"SAVE"}, {"SCAN"}, {"SCARD"},
		{"SCRIPT"}, {"SCRIPT", "DEBUG"}, {"SCRIPT", "EXISTS"},
		{"SCRIPT", "FLUSH"}, {"SCRIPT", "HELP"}, {"SCRIPT", "KILL"},
		{"SCRIPT", "LOAD"},
		{"SDIFF"}, {"SDIFFSTORE"}, {"SELECT"}, {"SET"}, {"SETBIT"}, {"SETEX"},
		{"SETNX"}, {"SETRANGE"}, {"SHUTDOWN"}, {"SINTER"}, {"SINTERCARD"},
		{"SINTERSTORE"}, {"SISMEMBER"}, {"SLAVEOF"},
		{"SLOWLOG"}, {"SLOWLOG", "GET"}, {"SLOWLOG", "HELP"},
		{"SLOWLOG", "LEN"}, {"SLOWLOG", "RESET"},
		{"SMEMBERS"}, {"SMISMEMBER"}, {"SMOVE"}, {"SORT"}, {"SORT_RO"},
		{"SPOP"}, {"SPUBLISH"}, {"SRANDMEMBER"}, {"SREM"}, {"SSCAN"},
		{"SSUBSCRIBE"}, {"STRLEN"}, {"SUBSCRIBE"}, {"SUBSTR"}, {"SUNION"},
		{"SUNIONSTORE"}, {"SUNSUBSCRIBE"}, {"SWAPDB"}, {"SYNC"}, {"TIME"},
		{"TOUCH"}, {"TTL"}, {"TYPE"}, {"UNLINK"}, {"UNSUBSCRIBE"}, {"UNWATCH"},
		{"WAIT"}, {"WAITAOF"}, {"WATCH"},
		{"XACK"}, {"XADD"}, {"XAUTOCLAIM"}, {"XCLAIM"}, {"XDEL"},
		{"XGROUP"}, {"XGROUP", "CREATE"}, {"XGROUP", "CREATECONSUMER"},
		{"XGROUP", "DELCONSUMER"}, {"XGROUP", "DESTROY"}, {"XGROUP", "HELP"},
		{"XGROUP", "SETID"},
		{"XINFO"}, {"XINFO", "CONSUMERS"}, {"XINFO", "GROUPS"},
		{"XINFO", "HELP"}, {"XINFO", "STREAM"},
		{"XLEN"}, {"XPENDING"}, {"XRANGE"}, {"XREAD"}, {"XREADGROUP"},
		{"XREVRANGE"}, {"XSETID"}, {"XTRIM"},
		{"ZADD"}, {"ZCARD"}, {"ZCOUNT"}, {"ZDIFF"}, {"ZDIFFSTORE"},
		{"ZINCRBY"}, {"ZINTER"}, {"ZINTERCARD"}, {"ZINTERSTORE"},
		{"ZLEXCOUNT"}, {"ZMPOP"}, {"ZMSCORE"}, {"ZPOPMAX"}, {"ZPOPMIN"},
		{"ZRANDMEMBER"}, {"ZRANGE"}, {"ZRANGEBYLEX"}, {"ZRANGEBYSCORE"},
		{"ZRANGESTORE"}, {"ZRANK"}, {"ZREM"}, {"ZREMRANGEBYLEX"},
		{"ZREMRANGEBYRANK"}, {"ZREMRANGEBYSCORE"}, {"ZREVRANGE"},
		{"ZREVRANGEBYLEX"}, {"ZREVRANGEBYSCORE"}, {"ZREVRANK"}, {"ZSCAN"},
		{"ZSCORE"}, {"ZUNION"}, {"ZUNIONSTORE"},
	}

	out := make(map[string]catalogEntry, len(names))
	for _, tokens := range names {
		name := canonicalName(tokens)
		out[name] = catalogEntry{
			Tokens:   tokens,
			ReadOnly: readOnly[name],
			AllNodes: allNodes[name],
			Policy:   policies[name],
		}
	}
	return out
}

// canonicalName joins command tokens into the catalog's lookup key, e.g.
// []string{"XGROUP", "CREATE"} -> "XGROUP CREATE".
func canonicalName(tokens []string) string {
	if len(tokens) == 1 {
		return tokens[0]
	}
	out := tokens[0]
	for _, t := range tokens[1:] {
		out += " " + t
	}
	return out
}

// twoWordCommands lists the first-word commands whose second argument is
// part of the canonical command name (XGROUP CREATE, ACL SETUSER, ...)
// rather than an ordinary argument - mirroring Redis's own "container
// command" convention.
var twoWordCommands = map[string]bool{
	"ACL": true, "CLIENT": true, "CLUSTER": true, "COMMAND": true,
	"CONFIG": true, "FUNCTION": true, "LATENCY": true, "MEMORY": true,
	"MODULE": true, "OBJECT": true, "PUBSUB": true, "SCRIPT": true,
	"SLOWLOG": true, "XGROUP": true, "XINFO": true,
}

// lookup returns the catalog entry for the command named by tokens (already
// uppercased), and true, applying the two-word concatenation rule. If the
// exact two-word name isn't in the catalog, falls back to the first word
// alone (e.g. "CLIENT FOOBAR" falls back to the bare "CLIENT" entry).
func lookup(tokens []string) (catalogEntry, string, bool) {
	if len(tokens) == 0 {
		return catalogEntry{}, "", false
	}
	first := tokens[0]
	if len(tokens) > 1 && twoWordCommands[first] {
		name := canonicalName(tokens[:2])
		if e, ok := catalog[name]; ok {
			return e, name, true
		}
	}
	if e, ok := catalog[first]; ok {
		return e, first, true
	}
	return catalogEntry{}, "", false
}
