package repository

const (
	// luaAddTraceToCellIfExists 新足迹写入网格缓存（仅在 key 存在时增量更新）
	// KEYS[1]: 网格单元 ZSet
	// ARGV[1]: score(created_at unix)
	// ARGV[2]: member(trace_uuid)
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示写入成功，0 表示 key 不存在
	luaAddTraceToCellIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('ZREM', KEYS[1], '__EMPTY__')
	redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`

	// luaRemoveTraceFromCellIfExists 足迹从网格缓存移除（仅在 key 存在时增量更新）
	// KEYS[1]: 网格单元 ZSet
	// ARGV[1]: member(trace_uuid)
	// ARGV[2]: 过期时间（秒）
	// 返回: 1 表示执行成功，0 表示 key 不存在
	luaRemoveTraceFromCellIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('ZREM', KEYS[1], ARGV[1])
	redis.call('ZREM', KEYS[1], '__EMPTY__')
	if redis.call('ZCARD', KEYS[1]) == 0 then
		redis.call('ZADD', KEYS[1], 0, '__EMPTY__')
	end
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

	// luaAddBlockIfExists 拉黑关系写入缓存（仅在 key 存在时增量更新）
	// KEYS[1]: 拉黑 Set
	// ARGV[1]: member(peer_uuid)
	// ARGV[2]: 过期时间（秒）
	// 返回: 1 表示写入成功，0 表示 key 不存在
	luaAddBlockIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('SREM', KEYS[1], '__EMPTY__')
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`

	// luaRemoveBlockIfExists 拉黑关系从缓存移除（仅在 key 存在时增量更新）
	// KEYS[1]: 拉黑 Set
	// ARGV[1]: member(peer_uuid)
	// ARGV[2]: 过期时间（秒）
	// 返回: 1 表示执行成功，0 表示 key 不存在
	luaRemoveBlockIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('SREM', KEYS[1], ARGV[1])
	if redis.call('SCARD', KEYS[1]) == 0 then
		redis.call('SADD', KEYS[1], '__EMPTY__')
	end
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`
)
