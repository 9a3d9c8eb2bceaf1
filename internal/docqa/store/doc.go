// Package store 提供问答流水线的向量索引。
//
// 每个索引在打开时绑定嵌入模型标识（provider/model）与向量维度，
// 用不同模型查询或写入同一索引会返回 ErrEmbedderMismatch。
// 实现包括内存、chromem 持久化目录、Milvus 和 pgvector。
package store
